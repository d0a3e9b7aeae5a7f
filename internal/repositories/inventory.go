package repositories

import (
	"database/sql"
	"fmt"

	"ticketcore/internal/models"
)

// InventoryRepository handles event, segment and reservation persistence.
// Sold counters only move through guarded single-statement updates; the
// capacity check and the increment are one atomic operation in the
// database, never a read followed by a write.
type InventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// ListEvents retrieves all events
func (r *InventoryRepository) ListEvents() ([]*models.Event, error) {
	query := `
		SELECT id, title, base_price, capacity, sold, starts_at, created_at
		FROM events
		ORDER BY starts_at`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		if err := rows.Scan(&event.ID, &event.Title, &event.BasePrice,
			&event.Capacity, &event.Sold, &event.StartsAt, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// GetEvent retrieves an event by ID
func (r *InventoryRepository) GetEvent(eventID string) (*models.Event, error) {
	query := `
		SELECT id, title, base_price, capacity, sold, starts_at, created_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRow(query, eventID).Scan(&event.ID, &event.Title,
		&event.BasePrice, &event.Capacity, &event.Sold, &event.StartsAt, &event.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// GetSegment retrieves a ticket segment by event and segment ID
func (r *InventoryRepository) GetSegment(eventID, segmentID string) (*models.TicketSegment, error) {
	query := `
		SELECT id, event_id, name, price, capacity, sold, max_per_person, loyalty_only
		FROM segments
		WHERE event_id = $1 AND id = $2`

	segment := &models.TicketSegment{}
	err := r.db.QueryRow(query, eventID, segmentID).Scan(&segment.ID, &segment.EventID,
		&segment.Name, &segment.Price, &segment.Capacity, &segment.Sold,
		&segment.MaxPerPerson, &segment.LoyaltyOnly)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrSegmentNotFound
		}
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}

	return segment, nil
}

// ListSegments retrieves all segments of an event
func (r *InventoryRepository) ListSegments(eventID string) ([]*models.TicketSegment, error) {
	query := `
		SELECT id, event_id, name, price, capacity, sold, max_per_person, loyalty_only
		FROM segments
		WHERE event_id = $1
		ORDER BY id`

	rows, err := r.db.Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	var segments []*models.TicketSegment
	for rows.Next() {
		segment := &models.TicketSegment{}
		if err := rows.Scan(&segment.ID, &segment.EventID, &segment.Name,
			&segment.Price, &segment.Capacity, &segment.Sold,
			&segment.MaxPerPerson, &segment.LoyaltyOnly); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, segment)
	}

	return segments, rows.Err()
}

// Reserve atomically claims quantity units against the segment and event
// caps and records the reservation. Both increments succeed or neither
// does; overselling is impossible for any interleaving of callers.
func (r *InventoryRepository) Reserve(res *models.Reservation) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE segments
		SET sold = sold + $3
		WHERE event_id = $1 AND id = $2 AND sold + $3 <= capacity`,
		res.EventID, res.SegmentID, res.Quantity)
	if err != nil {
		return fmt.Errorf("failed to reserve segment capacity: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if affected == 0 {
		return r.classifySegmentFailure(tx, res.EventID, res.SegmentID)
	}

	result, err = tx.Exec(`
		UPDATE events
		SET sold = sold + $2
		WHERE id = $1 AND sold + $2 <= capacity`,
		res.EventID, res.Quantity)
	if err != nil {
		return fmt.Errorf("failed to reserve event capacity: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if affected == 0 {
		return models.ErrCapacityExceeded
	}

	_, err = tx.Exec(`
		INSERT INTO reservations (token, event_id, segment_id, buyer_id, quantity, unit_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.Token, res.EventID, res.SegmentID, res.BuyerID,
		res.Quantity, res.UnitPrice, res.Status, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	return nil
}

// classifySegmentFailure tells a missing segment apart from a full one
func (r *InventoryRepository) classifySegmentFailure(tx *sql.Tx, eventID, segmentID string) error {
	var exists bool
	err := tx.QueryRow(`SELECT true FROM segments WHERE event_id = $1 AND id = $2`,
		eventID, segmentID).Scan(&exists)
	if err == sql.ErrNoRows {
		return models.ErrSegmentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check segment: %w", err)
	}
	return models.ErrCapacityExceeded
}

// Release undoes a held reservation's increments. The status flip is a
// compare-and-set, so releasing an unknown, committed or already-released
// token affects nothing and returns nil.
func (r *InventoryRepository) Release(token string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin release: %w", err)
	}
	defer tx.Rollback()

	var eventID, segmentID string
	var quantity int
	err = tx.QueryRow(`
		UPDATE reservations
		SET status = $2
		WHERE token = $1 AND status = $3
		RETURNING event_id, segment_id, quantity`,
		token, models.ReservationReleased, models.ReservationHeld).
		Scan(&eventID, &segmentID, &quantity)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE segments SET sold = sold - $3
		WHERE event_id = $1 AND id = $2 AND sold >= $3`,
		eventID, segmentID, quantity); err != nil {
		return fmt.Errorf("failed to return segment capacity: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE events SET sold = sold - $2
		WHERE id = $1 AND sold >= $2`,
		eventID, quantity); err != nil {
		return fmt.Errorf("failed to return event capacity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}

	return nil
}

// CommitReservation finalizes a held reservation so its capacity claim is
// permanent and a later Release is a no-op.
func (r *InventoryRepository) CommitReservation(token string) error {
	_, err := r.db.Exec(`
		UPDATE reservations
		SET status = $2
		WHERE token = $1 AND status = $3`,
		token, models.ReservationCommitted, models.ReservationHeld)
	if err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}
	return nil
}

// CreateEvent inserts an event with its segments, for seeding and admin
// tooling.
func (r *InventoryRepository) CreateEvent(event *models.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin event insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO events (id, title, base_price, capacity, sold, starts_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.Title, event.BasePrice, event.Capacity, event.Sold,
		event.StartsAt, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	for _, segment := range event.Segments {
		if err := segment.Validate(); err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO segments (id, event_id, name, price, capacity, sold, max_per_person, loyalty_only)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			segment.ID, event.ID, segment.Name, segment.Price,
			segment.Capacity, segment.Sold, segment.MaxPerPerson, segment.LoyaltyOnly)
		if err != nil {
			return fmt.Errorf("failed to insert segment %s: %w", segment.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event insert: %w", err)
	}

	return nil
}
