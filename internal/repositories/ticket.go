package repositories

import (
	"database/sql"
	"fmt"

	"ticketcore/internal/models"
)

// TicketRepository handles ticket and scan log persistence
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// MintTickets inserts a batch of tickets in one transaction. Either every
// ticket of a purchase exists or none do.
func (r *TicketRepository) MintTickets(tickets []*models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin ticket mint: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO tickets (id, owner_id, event_id, segment_id, status, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare ticket insert: %w", err)
	}
	defer stmt.Close()

	for _, ticket := range tickets {
		if _, err := stmt.Exec(ticket.ID, ticket.OwnerID, ticket.EventID,
			ticket.SegmentID, ticket.Status, ticket.PurchasedAt); err != nil {
			return fmt.Errorf("failed to insert ticket %s: %w", ticket.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticket mint: %w", err)
	}

	return nil
}

// GetTicketByID retrieves a ticket by ID
func (r *TicketRepository) GetTicketByID(ticketID string) (*models.Ticket, error) {
	query := `
		SELECT id, owner_id, event_id, segment_id, status, purchased_at
		FROM tickets
		WHERE id = $1`

	ticket := &models.Ticket{}
	err := r.db.QueryRow(query, ticketID).Scan(&ticket.ID, &ticket.OwnerID,
		&ticket.EventID, &ticket.SegmentID, &ticket.Status, &ticket.PurchasedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return ticket, nil
}

// TransitionStatus flips a ticket from one status to another as a single
// compare-and-set. Returns false when the ticket was not in the expected
// status, which is how concurrent scans lose the race.
func (r *TicketRepository) TransitionStatus(ticketID string, from, to models.TicketStatus) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE tickets
		SET status = $3
		WHERE id = $1 AND status = $2`,
		ticketID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition ticket status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

// AppendScanLog records one scan attempt. The log is append-only.
func (r *TicketRepository) AppendScanLog(entry *models.ScanLog) error {
	_, err := r.db.Exec(`
		INSERT INTO scan_logs (id, ticket_id, event_id, segment_id, outcome, scanned_by, gate, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.TicketID, entry.EventID, entry.SegmentID,
		entry.Outcome, entry.ScannedBy, entry.Gate, entry.ScannedAt)
	if err != nil {
		return fmt.Errorf("failed to append scan log: %w", err)
	}
	return nil
}

// ListScanLogs returns scan attempts newest first. An empty eventID
// matches all events; limit 0 means no limit.
func (r *TicketRepository) ListScanLogs(eventID string, limit int) ([]*models.ScanLog, error) {
	query := `
		SELECT id, ticket_id, event_id, segment_id, outcome, scanned_by, gate, scanned_at
		FROM scan_logs
		WHERE ($1 = '' OR event_id = $1)
		ORDER BY scanned_at DESC, id`
	args := []interface{}{eventID}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.ScanLog
	for rows.Next() {
		entry := &models.ScanLog{}
		if err := rows.Scan(&entry.ID, &entry.TicketID, &entry.EventID, &entry.SegmentID,
			&entry.Outcome, &entry.ScannedBy, &entry.Gate, &entry.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ListTicketsByOwner retrieves a buyer's tickets
func (r *TicketRepository) ListTicketsByOwner(ownerID string) ([]*models.Ticket, error) {
	query := `
		SELECT id, owner_id, event_id, segment_id, status, purchased_at
		FROM tickets
		WHERE owner_id = $1
		ORDER BY purchased_at DESC`

	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket := &models.Ticket{}
		if err := rows.Scan(&ticket.ID, &ticket.OwnerID, &ticket.EventID,
			&ticket.SegmentID, &ticket.Status, &ticket.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}
