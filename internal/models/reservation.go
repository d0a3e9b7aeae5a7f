package models

import "time"

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"
	ReservationCommitted ReservationStatus = "committed"
	ReservationReleased  ReservationStatus = "released"
)

// Reservation represents a provisional claim against segment and event
// capacity taken during checkout. The token is the handle used to release
// or commit the claim.
type Reservation struct {
	Token     string            `json:"token" db:"token"`
	EventID   string            `json:"event_id" db:"event_id"`
	SegmentID string            `json:"segment_id" db:"segment_id"`
	BuyerID   string            `json:"buyer_id" db:"buyer_id"`
	Quantity  int               `json:"quantity" db:"quantity"`
	UnitPrice int64             `json:"unit_price" db:"unit_price"` // segment price at reserve time, in cents
	Status    ReservationStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// IsHeld returns true while the reservation still holds capacity that can
// be released.
func (r *Reservation) IsHeld() bool {
	return r.Status == ReservationHeld
}
