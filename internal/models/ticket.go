package models

import (
	"errors"
	"time"
)

// TicketStatus represents the status of a ticket
type TicketStatus string

const (
	TicketPurchased TicketStatus = "purchased"
	TicketUsed      TicketStatus = "used"
	TicketInvalid   TicketStatus = "invalid"
)

// ScanOutcome represents the result of a single scan attempt
type ScanOutcome string

const (
	ScanValidEntry    ScanOutcome = "valid_entry"
	ScanAlreadyUsed   ScanOutcome = "already_used"
	ScanInvalidTicket ScanOutcome = "invalid_ticket"
)

// Ticket represents an individual admission ticket. The ID is the scannable
// code presented at the gate.
type Ticket struct {
	ID          string       `json:"id" db:"id"`
	OwnerID     string       `json:"owner_id" db:"owner_id"`
	EventID     string       `json:"event_id" db:"event_id"`
	SegmentID   string       `json:"segment_id" db:"segment_id"`
	Status      TicketStatus `json:"status" db:"status"`
	PurchasedAt time.Time    `json:"purchased_at" db:"purchased_at"`
}

// ScanLog represents one scan attempt, valid or not. Entries are append-only
// and form the admission audit trail.
type ScanLog struct {
	ID        string      `json:"id" db:"id"`
	TicketID  string      `json:"ticket_id" db:"ticket_id"`
	EventID   string      `json:"event_id" db:"event_id"`
	SegmentID string      `json:"segment_id" db:"segment_id"`
	Outcome   ScanOutcome `json:"outcome" db:"outcome"`
	ScannedBy string      `json:"scanned_by" db:"scanned_by"`
	Gate      string      `json:"gate" db:"gate"`
	ScannedAt time.Time   `json:"scanned_at" db:"scanned_at"`
}

// Validate validates the ticket data
func (t *Ticket) Validate() error {
	if t.ID == "" {
		return errors.New("ticket id is required")
	}

	if t.OwnerID == "" {
		return errors.New("ticket owner is required")
	}

	if t.EventID == "" || t.SegmentID == "" {
		return errors.New("ticket event and segment are required")
	}

	return t.validateStatus()
}

// validateStatus validates the ticket status
func (t *Ticket) validateStatus() error {
	switch t.Status {
	case TicketPurchased, TicketUsed, TicketInvalid:
		return nil
	default:
		return errors.New("invalid ticket status")
	}
}

// CanBeUsed returns true if the ticket is admissible at the gate
func (t *Ticket) CanBeUsed() bool {
	return t.Status == TicketPurchased
}

// IsTerminal returns true if the ticket status can no longer change
func (t *Ticket) IsTerminal() bool {
	return t.Status == TicketUsed || t.Status == TicketInvalid
}

// CanTransitionTo reports whether the status change is allowed. Transitions
// only move forward: purchased to used or invalid, never back.
func (t *Ticket) CanTransitionTo(next TicketStatus) bool {
	if t.Status != TicketPurchased {
		return false
	}
	return next == TicketUsed || next == TicketInvalid
}

// ScanSummary aggregates scan log entries for an event
type ScanSummary struct {
	ValidEntries   int `json:"valid_entries"`
	AlreadyUsed    int `json:"already_used"`
	InvalidTickets int `json:"invalid_tickets"`
	TotalScans     int `json:"total_scans"`
}
