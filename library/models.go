package library

import (
	"github.com/pkg/errors"
)

// Kind tags the closed set of circulating item types.
type Kind string

const (
	KindBook  Kind = "book"
	KindAlbum Kind = "album"
	KindMovie Kind = "movie"
)

// LoanPeriod is the number of days an item of this kind may be held before
// fines start to accrue.
func (k Kind) LoanPeriod() int {
	switch k {
	case KindBook:
		return 21
	case KindAlbum:
		return 14
	case KindMovie:
		return 7
	}
	return 0
}

// CreatorRole names what Item.Creator means for this kind.
func (k Kind) CreatorRole() string {
	switch k {
	case KindBook:
		return "author"
	case KindAlbum:
		return "artist"
	case KindMovie:
		return "director"
	}
	return "creator"
}

// ParseKind accepts the lowercase kind names used by the CLI and the API.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBook, KindAlbum, KindMovie:
		return k, nil
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Location is where an item physically is.
type Location string

const (
	OnShelf     Location = "ON_SHELF"
	OnHoldShelf Location = "ON_HOLD_SHELF"
	CheckedOut  Location = "CHECKED_OUT"
)

var (
	ErrUnknownKind = errors.New("unknown item kind")
	ErrItemNotHeld = errors.New("item not held by patron")
)

// Item is a single circulating copy. Its state fields are only changed by
// Library operations.
type Item struct {
	ID         string
	Title      string
	Kind       Kind
	Creator    string
	LoanPeriod int

	Location     Location
	Holder       *Patron
	Requester    *Patron
	CheckoutDate int

	// Stamped is false until the first checkout sets CheckoutDate.
	Stamped bool
}

// NewItem creates an item on the shelf with the loan period of its kind.
func NewItem(kind Kind, id, title, creator string) *Item {
	return &Item{
		ID:         id,
		Title:      title,
		Kind:       kind,
		Creator:    creator,
		LoanPeriod: kind.LoanPeriod(),
		Location:   OnShelf,
	}
}

func NewBook(id, title, author string) *Item    { return NewItem(KindBook, id, title, author) }
func NewAlbum(id, title, artist string) *Item   { return NewItem(KindAlbum, id, title, artist) }
func NewMovie(id, title, director string) *Item { return NewItem(KindMovie, id, title, director) }

// Patron represents a registered borrower.
type Patron struct {
	ID    string
	Name  string
	Items []*Item // checkout order
	Fine  Money

	// PINHash is a bcrypt hash; empty means the patron has no desk PIN.
	PINHash string
}

// NewPatron creates a patron with no items and a zero balance.
func NewPatron(id, name string) *Patron {
	return &Patron{ID: id, Name: name}
}

// AddItem appends item to the patron's held items.
func (p *Patron) AddItem(item *Item) {
	p.Items = append(p.Items, item)
}

// RemoveItem drops the first occurrence of item from the held items.
func (p *Patron) RemoveItem(item *Item) error {
	for i, held := range p.Items {
		if held == item {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrItemNotHeld, "patron %s, item %s", p.ID, item.ID)
}

// AmendFine adds delta to the balance. Payments pass a negative delta.
func (p *Patron) AmendFine(delta Money) {
	p.Fine += delta
}
