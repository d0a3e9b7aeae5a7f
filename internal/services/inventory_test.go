package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketcore/internal/models"
)

func seedInventory(t *testing.T, eventCap, segmentCap, maxPerPerson int) (*InventoryService, *MockInventoryRepository) {
	t.Helper()

	repo := NewMockInventoryRepository()
	repo.AddEvent(&models.Event{
		ID:        "ev1",
		Title:     "Test Event",
		BasePrice: 100000,
		Capacity:  eventCap,
		StartsAt:  time.Now().Add(24 * time.Hour),
	})
	repo.AddSegment(&models.TicketSegment{
		ID:           "regular",
		EventID:      "ev1",
		Name:         "Regular",
		Price:        100000,
		Capacity:     segmentCap,
		MaxPerPerson: maxPerPerson,
	})

	return NewInventoryService(repo), repo
}

func TestReserveReducesAvailability(t *testing.T) {
	svc, _ := seedInventory(t, 100, 10, 8)

	reservation, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reservation.Token)
	assert.Equal(t, int64(100000), reservation.UnitPrice)
	assert.Equal(t, models.ReservationHeld, reservation.Status)

	availability, err := svc.Availability("ev1")
	require.NoError(t, err)
	require.Len(t, availability, 1)
	assert.Equal(t, 7, availability[0].Availability)
}

func TestReserveCapacityExceeded(t *testing.T) {
	svc, _ := seedInventory(t, 100, 5, 8)

	_, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 6,
	})
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)

	// Nothing was claimed by the failed attempt.
	availability, err := svc.Availability("ev1")
	require.NoError(t, err)
	assert.Equal(t, 5, availability[0].Availability)
}

func TestReserveEventCapBindsBeforeSegmentCap(t *testing.T) {
	// Segment alone could hold 10, but the event only has room for 4.
	svc, _ := seedInventory(t, 4, 10, 8)

	_, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 5,
	})
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)

	availability, err := svc.Availability("ev1")
	require.NoError(t, err)
	assert.Equal(t, 4, availability[0].Availability)
}

func TestReservePerPersonLimit(t *testing.T) {
	svc, _ := seedInventory(t, 100, 50, 4)

	_, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 5,
	})
	assert.ErrorIs(t, err, models.ErrPerPersonLimitExceeded)

	_, err = svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 3, PriorQuantity: 2,
	})
	assert.ErrorIs(t, err, models.ErrPerPersonLimitExceeded)
}

func TestReserveLoyaltyOnlySegment(t *testing.T) {
	svc, repo := seedInventory(t, 100, 50, 4)
	repo.AddSegment(&models.TicketSegment{
		ID:           "loyalty",
		EventID:      "ev1",
		Name:         "Loyalty",
		Price:        75000,
		Capacity:     20,
		MaxPerPerson: 6,
		LoyaltyOnly:  true,
	})

	_, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "loyalty", BuyerID: "b1", Quantity: 1,
	})
	assert.ErrorIs(t, err, models.ErrLoyaltyRequired)

	_, err = svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "loyalty", BuyerID: "b1", Quantity: 1, LoyalBuyer: true,
	})
	assert.NoError(t, err)
}

func TestReserveUnknownSegment(t *testing.T) {
	svc, _ := seedInventory(t, 100, 50, 4)

	_, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "vip", BuyerID: "b1", Quantity: 1,
	})
	assert.ErrorIs(t, err, models.ErrSegmentNotFound)
}

func TestReserveInvalidQuantity(t *testing.T) {
	svc, _ := seedInventory(t, 100, 50, 4)

	_, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 0,
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	const capacity = 10
	const attempts = 40

	svc, _ := seedInventory(t, capacity, capacity, 8)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Reserve(&ReserveRequest{
				EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 1,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, models.ErrCapacityExceeded)
		}
	}
	assert.Equal(t, capacity, successes)

	availability, err := svc.Availability("ev1")
	require.NoError(t, err)
	assert.Equal(t, 0, availability[0].Availability)
}

func TestReleaseIsIdempotent(t *testing.T) {
	svc, _ := seedInventory(t, 100, 10, 8)

	reservation, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 4,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Release(reservation.Token))
	require.NoError(t, svc.Release(reservation.Token))
	require.NoError(t, svc.Release("no-such-token"))

	availability, err := svc.Availability("ev1")
	require.NoError(t, err)
	assert.Equal(t, 10, availability[0].Availability)
}

func TestReleaseAfterCommitIsNoOp(t *testing.T) {
	svc, _ := seedInventory(t, 100, 10, 8)

	reservation, err := svc.Reserve(&ReserveRequest{
		EventID: "ev1", SegmentID: "regular", BuyerID: "b1", Quantity: 4,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Commit(reservation.Token))
	require.NoError(t, svc.Release(reservation.Token))

	// Committed units stay sold.
	availability, err := svc.Availability("ev1")
	require.NoError(t, err)
	assert.Equal(t, 6, availability[0].Availability)
}

func TestAvailabilityUnknownEvent(t *testing.T) {
	svc, _ := seedInventory(t, 100, 10, 8)

	_, err := svc.Availability("missing")
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}
