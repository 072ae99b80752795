package server

import (
	"circulation-desk/library"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type DeskService interface {
	CheckOut(patronID, itemID string) (library.Outcome, error)
	Return(itemID string) (library.Outcome, error)
	Request(patronID, itemID string) (library.Outcome, error)
	PayFine(patronID string, amount library.Money) (library.Outcome, error)
	AdvanceDate(days int) (int, error)
	Authenticate(patronID, pin string) error
	Status() library.Snapshot
	History(limit int) ([]library.Event, error)
}

var _ DeskService = (*library.LibraryManager)(nil)
