package services

import (
	"errors"
	"fmt"
	"time"

	"ticketcore/internal/models"

	"github.com/google/uuid"
)

// ScannerService validates scanned tickets at the gate. The status
// transition is a compare-and-set, so two gates scanning the same ticket
// concurrently produce exactly one valid entry. Every attempt appends one
// scan log entry regardless of outcome.
type ScannerService struct {
	repo TicketRepository
}

// NewScannerService creates a new scanner service
func NewScannerService(repo TicketRepository) *ScannerService {
	return &ScannerService{repo: repo}
}

// Scan resolves a scanned ticket id to one of three outcomes and records
// the attempt. Invalid and already-used are results, not errors; an error
// return means the attempt could not be recorded and should be re-issued
// by the gate (scanning is idempotent).
func (s *ScannerService) Scan(ticketID, scannedBy, gate string) (*models.ScanLog, error) {
	entry := &models.ScanLog{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		ScannedBy: scannedBy,
		Gate:      gate,
		ScannedAt: time.Now(),
	}

	ticket, err := s.repo.GetTicketByID(ticketID)
	switch {
	case errors.Is(err, models.ErrTicketNotFound):
		entry.Outcome = models.ScanInvalidTicket
	case err != nil:
		return nil, fmt.Errorf("failed to look up ticket: %w", err)
	default:
		entry.EventID = ticket.EventID
		entry.SegmentID = ticket.SegmentID
		entry.Outcome, err = s.resolveOutcome(ticket)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.AppendScanLog(entry); err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}

	return entry, nil
}

// resolveOutcome decides the scan outcome, transitioning the ticket when
// it is still admissible.
func (s *ScannerService) resolveOutcome(ticket *models.Ticket) (models.ScanOutcome, error) {
	switch ticket.Status {
	case models.TicketUsed:
		return models.ScanAlreadyUsed, nil
	case models.TicketInvalid:
		return models.ScanInvalidTicket, nil
	}

	won, err := s.repo.TransitionStatus(ticket.ID, models.TicketPurchased, models.TicketUsed)
	if err != nil {
		return "", fmt.Errorf("failed to admit ticket: %w", err)
	}
	if won {
		return models.ScanValidEntry, nil
	}

	// Lost the race to a concurrent scan or an administrative void; report
	// what the ticket became.
	current, err := s.repo.GetTicketByID(ticket.ID)
	if err == nil && current.Status == models.TicketInvalid {
		return models.ScanInvalidTicket, nil
	}
	return models.ScanAlreadyUsed, nil
}

// VoidTicket administratively invalidates a purchased ticket. Used and
// already-voided tickets cannot be voided; their states are terminal.
func (s *ScannerService) VoidTicket(ticketID string) error {
	won, err := s.repo.TransitionStatus(ticketID, models.TicketPurchased, models.TicketInvalid)
	if err != nil {
		return fmt.Errorf("failed to void ticket: %w", err)
	}

	if !won {
		ticket, err := s.repo.GetTicketByID(ticketID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: ticket is already %s", models.ErrInvalidInput, ticket.Status)
	}

	return nil
}

// ScanLogEntries returns the most recent scan attempts for an event
func (s *ScannerService) ScanLogEntries(eventID string, limit int) ([]*models.ScanLog, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListScanLogs(eventID, limit)
}

// Summary aggregates scan outcomes for an event, as shown on the staff
// dashboard.
func (s *ScannerService) Summary(eventID string) (*models.ScanSummary, error) {
	entries, err := s.repo.ListScanLogs(eventID, 0)
	if err != nil {
		return nil, err
	}

	summary := &models.ScanSummary{TotalScans: len(entries)}
	for _, entry := range entries {
		switch entry.Outcome {
		case models.ScanValidEntry:
			summary.ValidEntries++
		case models.ScanAlreadyUsed:
			summary.AlreadyUsed++
		case models.ScanInvalidTicket:
			summary.InvalidTickets++
		}
	}

	return summary, nil
}
