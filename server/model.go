package server

import (
	"circulation-desk/library"
)

type CheckoutRequest struct {
	PatronID string `json:"patron_id" validate:"required"`
	ItemID   string `json:"item_id" validate:"required"`
	PIN      string `json:"pin"`
}

type ReturnRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type PayRequest struct {
	PatronID string `json:"patron_id" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
	PIN      string `json:"pin"`
}

type AdvanceRequest struct {
	Days int `json:"days" validate:"gte=0,lte=3650"`
}

type OutcomeResponse struct {
	Outcome library.Outcome `json:"outcome"`
	Success bool            `json:"success"`
}

type AdvanceResponse struct {
	Date int `json:"date"`
}
