package models

import (
	"errors"
	"strings"
	"time"
)

// Event represents a ticketed event with a finite overall capacity
type Event struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	BasePrice int64     `json:"base_price" db:"base_price"` // Price in cents
	Capacity  int       `json:"capacity" db:"capacity"`
	Sold      int       `json:"sold" db:"sold"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Related data
	Segments []*TicketSegment `json:"segments,omitempty"`
}

// TicketSegment represents a priced ticket tier within an event
type TicketSegment struct {
	ID           string `json:"id" db:"id"`
	EventID      string `json:"event_id" db:"event_id"`
	Name         string `json:"name" db:"name"`
	Price        int64  `json:"price" db:"price"` // Price in cents
	Capacity     int    `json:"capacity" db:"capacity"`
	Sold         int    `json:"sold" db:"sold"`
	MaxPerPerson int    `json:"max_per_person" db:"max_per_person"`

	// LoyaltyOnly segments can only be bought by loyal customers.
	LoyaltyOnly bool `json:"loyalty_only" db:"loyalty_only"`
}

// Validate validates the event data
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("event title is required")
	}

	if e.BasePrice < 0 {
		return errors.New("event base price cannot be negative")
	}

	if e.Capacity <= 0 {
		return errors.New("event capacity must be greater than 0")
	}

	if e.Sold < 0 || e.Sold > e.Capacity {
		return errors.New("event sold count must be between 0 and capacity")
	}

	return nil
}

// Validate validates the ticket segment data
func (s *TicketSegment) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("segment name is required")
	}

	if s.Price < 0 {
		return errors.New("segment price cannot be negative")
	}

	if s.Capacity <= 0 {
		return errors.New("segment capacity must be greater than 0")
	}

	if s.MaxPerPerson <= 0 {
		return errors.New("segment max per person must be greater than 0")
	}

	if s.Sold < 0 || s.Sold > s.Capacity {
		return errors.New("segment sold count must be between 0 and capacity")
	}

	return nil
}

// Remaining returns the number of unsold tickets across the whole event
func (e *Event) Remaining() int {
	remaining := e.Capacity - e.Sold
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsSoldOut returns true if the event has no remaining capacity
func (e *Event) IsSoldOut() bool {
	return e.Sold >= e.Capacity
}

// Availability returns the number of units that can still be sold in this
// segment given the event's remaining capacity. It is derived on every call
// and never stored.
func (s *TicketSegment) Availability(eventRemaining int) int {
	remaining := s.Capacity - s.Sold
	if remaining < 0 {
		remaining = 0
	}
	if eventRemaining < remaining {
		remaining = eventRemaining
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SegmentAvailability pairs a segment with its derived availability
type SegmentAvailability struct {
	Segment      *TicketSegment `json:"segment"`
	Availability int            `json:"availability"`
}
