package models

import "time"

// Receipt represents the outcome of a committed checkout. The total is the
// amount actually charged; posted revenue always equals this total.
type Receipt struct {
	IdempotencyKey string    `json:"idempotency_key"`
	BuyerID        string    `json:"buyer_id"`
	Tickets        []*Ticket `json:"tickets"`
	Subtotal       int64     `json:"subtotal"` // in cents, before discount
	Discount       int64     `json:"discount"` // in cents, informational
	Total          int64     `json:"total"`    // in cents, charged and posted
	CreatedAt      time.Time `json:"created_at"`
}
