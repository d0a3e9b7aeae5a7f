package services

import (
	"fmt"
	"time"

	"ticketcore/internal/models"

	"github.com/google/uuid"
)

// InventoryService allocates ticket inventory. All capacity mutations go
// through the repository's atomic reserve/release primitives; the service
// never reads a count and writes it back.
type InventoryService struct {
	repo InventoryRepository
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repo InventoryRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

// ReserveRequest represents a request to reserve units in one segment
type ReserveRequest struct {
	EventID   string `json:"event_id"`
	SegmentID string `json:"segment_id"`
	BuyerID   string `json:"buyer_id"`
	Quantity  int    `json:"quantity"`

	// PriorQuantity is how many units the buyer already holds in this
	// segment within the same order, for the per-person limit.
	PriorQuantity int `json:"prior_quantity"`

	// LoyalBuyer is resolved server-side from the buyer's purchase history
	// and unlocks loyalty-only segments. Never taken from the request body.
	LoyalBuyer bool `json:"-"`
}

// Reserve atomically claims quantity units against the segment and event
// caps. On success the returned reservation is held until released or
// committed.
func (s *InventoryService) Reserve(req *ReserveRequest) (*models.Reservation, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", models.ErrInvalidInput)
	}

	if req.BuyerID == "" {
		return nil, fmt.Errorf("%w: buyer id is required", models.ErrInvalidInput)
	}

	segment, err := s.repo.GetSegment(req.EventID, req.SegmentID)
	if err != nil {
		return nil, err
	}

	if segment.LoyaltyOnly && !req.LoyalBuyer {
		return nil, fmt.Errorf("%w: %q", models.ErrLoyaltyRequired, segment.Name)
	}

	if req.Quantity+req.PriorQuantity > segment.MaxPerPerson {
		return nil, fmt.Errorf("%w: limit is %d per person for %q",
			models.ErrPerPersonLimitExceeded, segment.MaxPerPerson, segment.Name)
	}

	reservation := &models.Reservation{
		Token:     uuid.NewString(),
		EventID:   req.EventID,
		SegmentID: req.SegmentID,
		BuyerID:   req.BuyerID,
		Quantity:  req.Quantity,
		UnitPrice: segment.Price,
		Status:    models.ReservationHeld,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Reserve(reservation); err != nil {
		return nil, err
	}

	return reservation, nil
}

// Release returns a reservation's units to the pool. It is idempotent:
// releasing an unknown or already-released token is a no-op.
func (s *InventoryService) Release(token string) error {
	return s.repo.Release(token)
}

// Commit finalizes a held reservation after checkout succeeds
func (s *InventoryService) Commit(token string) error {
	return s.repo.CommitReservation(token)
}

// Availability returns every segment of an event with its availability
// computed fresh from the current sold counts.
func (s *InventoryService) Availability(eventID string) ([]models.SegmentAvailability, error) {
	event, err := s.repo.GetEvent(eventID)
	if err != nil {
		return nil, err
	}

	segments, err := s.repo.ListSegments(eventID)
	if err != nil {
		return nil, err
	}

	eventRemaining := event.Remaining()
	availability := make([]models.SegmentAvailability, 0, len(segments))
	for _, segment := range segments {
		availability = append(availability, models.SegmentAvailability{
			Segment:      segment,
			Availability: segment.Availability(eventRemaining),
		})
	}

	return availability, nil
}

// GetSegment retrieves a single segment
func (s *InventoryService) GetSegment(eventID, segmentID string) (*models.TicketSegment, error) {
	return s.repo.GetSegment(eventID, segmentID)
}

// ListEvents retrieves the event catalogue
func (s *InventoryService) ListEvents() ([]*models.Event, error) {
	return s.repo.ListEvents()
}
