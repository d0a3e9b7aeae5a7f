package services

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketcore/internal/models"
)

type checkoutFixture struct {
	inventory     *InventoryService
	inventoryRepo *MockInventoryRepository
	ledger        *LedgerService
	ledgerRepo    *MockLedgerRepository
	ticketRepo    *MockTicketRepository
	buyerRepo     *MockBuyerRepository
	checkoutRepo  *MockCheckoutRepository
	service       *CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		inventoryRepo: NewMockInventoryRepository(),
		ledgerRepo:    NewMockLedgerRepository(),
		ticketRepo:    NewMockTicketRepository(),
		buyerRepo:     NewMockBuyerRepository(),
		checkoutRepo:  NewMockCheckoutRepository(),
	}

	f.inventoryRepo.AddEvent(&models.Event{
		ID: "ev1", Title: "Test Event", BasePrice: 100000, Capacity: 100,
		StartsAt: time.Now().Add(24 * time.Hour),
	})
	f.inventoryRepo.AddSegment(&models.TicketSegment{
		ID: "regular", EventID: "ev1", Name: "Regular",
		Price: 100000, Capacity: 50, MaxPerPerson: 8,
	})
	f.inventoryRepo.AddSegment(&models.TicketSegment{
		ID: "vip", EventID: "ev1", Name: "VIP",
		Price: 250000, Capacity: 2, MaxPerPerson: 4,
	})

	f.inventory = NewInventoryService(f.inventoryRepo)
	f.ledger = NewLedgerService(f.ledgerRepo)
	require.NoError(t, f.ledger.EnsureChart())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = NewCheckoutService(
		f.inventory, f.ledger, f.ticketRepo, f.buyerRepo, f.checkoutRepo, logger)

	return f
}

func (f *checkoutFixture) balance(t *testing.T, accountID string) int64 {
	t.Helper()
	account, err := f.ledgerRepo.GetAccount(accountID)
	require.NoError(t, err)
	return account.Balance
}

func (f *checkoutFixture) availability(t *testing.T, segmentID string) int {
	t.Helper()
	availability, err := f.inventory.Availability("ev1")
	require.NoError(t, err)
	for _, sa := range availability {
		if sa.Segment.ID == segmentID {
			return sa.Availability
		}
	}
	t.Fatalf("segment %s not found", segmentID)
	return 0
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newCheckoutFixture(t)

	receipt, err := f.service.Checkout(&CheckoutRequest{
		BuyerID:        "b1",
		IdempotencyKey: "key-1",
		PaymentMethod:  "bank",
		Items: []models.CartItem{
			{EventID: "ev1", SegmentID: "regular", Quantity: 2, UnitPrice: 100000, LineTotal: 200000},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(200000), receipt.Subtotal)
	assert.Equal(t, int64(0), receipt.Discount)
	assert.Equal(t, int64(200000), receipt.Total)
	require.Len(t, receipt.Tickets, 2)
	for _, ticket := range receipt.Tickets {
		assert.Equal(t, models.TicketPurchased, ticket.Status)
		assert.Equal(t, "b1", ticket.OwnerID)
	}

	// Revenue hits both the payment account and the category account.
	assert.Equal(t, int64(200000), f.balance(t, "bank"))
	assert.Equal(t, int64(200000), f.balance(t, "ticket_sales_revenue"))

	assert.Equal(t, 48, f.availability(t, "regular"))

	// One point per whole 100 cents charged.
	buyer, err := f.buyerRepo.GetOrCreateBuyer("b1")
	require.NoError(t, err)
	assert.Equal(t, 2000, buyer.LoyaltyPoints)
	assert.Equal(t, []string{"ev1"}, buyer.PurchaseHistory)
}

func TestCheckoutAppliesLoyaltyDiscount(t *testing.T) {
	f := newCheckoutFixture(t)
	f.buyerRepo.SetBuyer(&models.Buyer{ID: "b1", LoyaltyPoints: 150})

	receipt, err := f.service.Checkout(&CheckoutRequest{
		BuyerID:        "b1",
		IdempotencyKey: "key-1",
		PaymentMethod:  "mpesa",
		Items: []models.CartItem{
			{EventID: "ev1", SegmentID: "regular", Quantity: 3, UnitPrice: 100000, LineTotal: 300000},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(300000), receipt.Subtotal)
	assert.Equal(t, int64(30000), receipt.Discount)
	assert.Equal(t, int64(270000), receipt.Total)

	// Posted revenue equals the charged amount, not the list price.
	assert.Equal(t, int64(270000), f.balance(t, "mpesa"))
	assert.Equal(t, int64(270000), f.balance(t, "ticket_sales_revenue"))
}

func TestCheckoutLoyaltySegmentGate(t *testing.T) {
	f := newCheckoutFixture(t)
	f.inventoryRepo.AddSegment(&models.TicketSegment{
		ID: "loyalty", EventID: "ev1", Name: "Loyalty",
		Price: 75000, Capacity: 20, MaxPerPerson: 6, LoyaltyOnly: true,
	})

	req := func(buyerID, key string) *CheckoutRequest {
		return &CheckoutRequest{
			BuyerID:        buyerID,
			IdempotencyKey: key,
			PaymentMethod:  "bank",
			Items: []models.CartItem{
				{EventID: "ev1", SegmentID: "loyalty", Quantity: 1, UnitPrice: 75000, LineTotal: 75000},
			},
		}
	}

	// A first-time buyer cannot buy the loyalty tier.
	_, err := f.service.Checkout(req("newcomer", "key-1"))
	assert.ErrorIs(t, err, models.ErrLoyaltyRequired)
	assert.Equal(t, 20, f.availability(t, "loyalty"))

	// Three prior purchases unlock it.
	f.buyerRepo.SetBuyer(&models.Buyer{
		ID: "regular-face", PurchaseHistory: []string{"e1", "e2", "e3"},
	})
	receipt, err := f.service.Checkout(req("regular-face", "key-2"))
	require.NoError(t, err)
	assert.Equal(t, int64(75000), receipt.Total)
}

func TestCheckoutMultiLineAllOrNothing(t *testing.T) {
	f := newCheckoutFixture(t)

	// The vip line exceeds its segment capacity, so the whole checkout
	// fails and the regular line's reservation is released.
	_, err := f.service.Checkout(&CheckoutRequest{
		BuyerID:        "b1",
		IdempotencyKey: "key-1",
		PaymentMethod:  "bank",
		Items: []models.CartItem{
			{EventID: "ev1", SegmentID: "regular", Quantity: 2, UnitPrice: 100000, LineTotal: 200000},
			{EventID: "ev1", SegmentID: "vip", Quantity: 3, UnitPrice: 250000, LineTotal: 750000},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)

	assert.Equal(t, 50, f.availability(t, "regular"))
	assert.Equal(t, 2, f.availability(t, "vip"))
	assert.Equal(t, int64(0), f.balance(t, "bank"))

	transactions, err := f.ledgerRepo.ListTransactions(TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestCheckoutRollsBackOnPostingFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.ledgerRepo.PostErr = errors.New("ledger unavailable")

	_, err := f.service.Checkout(&CheckoutRequest{
		BuyerID:        "b1",
		IdempotencyKey: "key-1",
		PaymentMethod:  "bank",
		Items: []models.CartItem{
			{EventID: "ev1", SegmentID: "regular", Quantity: 2, UnitPrice: 100000, LineTotal: 200000},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrLedgerPostingFailed)

	// Reservation compensated, no tickets minted.
	assert.Equal(t, 50, f.availability(t, "regular"))
	_, lookupErr := f.ticketRepo.GetTicketByID("anything")
	assert.ErrorIs(t, lookupErr, models.ErrTicketNotFound)
}

func TestCheckoutRollsBackOnMintFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.ticketRepo.MintErr = errors.New("ticket store unavailable")

	_, err := f.service.Checkout(&CheckoutRequest{
		BuyerID:        "b1",
		IdempotencyKey: "key-1",
		PaymentMethod:  "bank",
		Items: []models.CartItem{
			{EventID: "ev1", SegmentID: "regular", Quantity: 2, UnitPrice: 100000, LineTotal: 200000},
		},
	})
	require.Error(t, err)

	// Posted revenue was reversed, so every account nets to zero.
	assert.Equal(t, int64(0), f.balance(t, "bank"))
	assert.Equal(t, int64(0), f.balance(t, "ticket_sales_revenue"))
	assert.Equal(t, 50, f.availability(t, "regular"))

	// The journal keeps both the sale and its reversal.
	transactions, err := f.ledgerRepo.ListTransactions(TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	f := newCheckoutFixture(t)

	req := &CheckoutRequest{
		BuyerID:        "b1",
		IdempotencyKey: "key-1",
		PaymentMethod:  "bank",
		Items: []models.CartItem{
			{EventID: "ev1", SegmentID: "regular", Quantity: 2, UnitPrice: 100000, LineTotal: 200000},
		},
	}

	first, err := f.service.Checkout(req)
	require.NoError(t, err)

	second, err := f.service.Checkout(req)
	require.NoError(t, err)

	// Same receipt, no second charge, no extra tickets.
	assert.Equal(t, first.Total, second.Total)
	require.Len(t, second.Tickets, 2)
	assert.Equal(t, first.Tickets[0].ID, second.Tickets[0].ID)
	assert.Equal(t, int64(200000), f.balance(t, "bank"))
	assert.Equal(t, 48, f.availability(t, "regular"))
}

func TestCheckoutIdempotencyKeyConflict(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.Checkout(&CheckoutRequest{
		BuyerID:        "b1",
		IdempotencyKey: "key-1",
		PaymentMethod:  "bank",
		Items: []models.CartItem{
			{EventID: "ev1", SegmentID: "regular", Quantity: 2, UnitPrice: 100000, LineTotal: 200000},
		},
	})
	require.NoError(t, err)

	_, err = f.service.Checkout(&CheckoutRequest{
		BuyerID:        "b1",
		IdempotencyKey: "key-1",
		PaymentMethod:  "bank",
		Items: []models.CartItem{
			{EventID: "ev1", SegmentID: "vip", Quantity: 1, UnitPrice: 250000, LineTotal: 250000},
		},
	})
	assert.ErrorIs(t, err, models.ErrIdempotencyConflict)
}

func TestCheckoutValidatesRequest(t *testing.T) {
	f := newCheckoutFixture(t)

	cases := []struct {
		name string
		req  *CheckoutRequest
	}{
		{"missing buyer", &CheckoutRequest{IdempotencyKey: "k", PaymentMethod: "bank",
			Items: []models.CartItem{{EventID: "ev1", SegmentID: "regular", Quantity: 1}}}},
		{"missing key", &CheckoutRequest{BuyerID: "b1", PaymentMethod: "bank",
			Items: []models.CartItem{{EventID: "ev1", SegmentID: "regular", Quantity: 1}}}},
		{"missing payment method", &CheckoutRequest{BuyerID: "b1", IdempotencyKey: "k",
			Items: []models.CartItem{{EventID: "ev1", SegmentID: "regular", Quantity: 1}}}},
		{"empty cart", &CheckoutRequest{BuyerID: "b1", IdempotencyKey: "k", PaymentMethod: "bank"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Checkout(tc.req)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestConcurrentCheckoutsRespectCapacity(t *testing.T) {
	f := newCheckoutFixture(t)

	// The vip segment holds 2; two buyers race for 2 each. Exactly one
	// checkout can win.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, buyer := range []string{"b1", "b2"} {
		wg.Add(1)
		go func(buyerID string) {
			defer wg.Done()
			_, err := f.service.Checkout(&CheckoutRequest{
				BuyerID:        buyerID,
				IdempotencyKey: "key-" + buyerID,
				PaymentMethod:  "cash",
				Items: []models.CartItem{
					{EventID: "ev1", SegmentID: "vip", Quantity: 2, UnitPrice: 250000, LineTotal: 500000},
				},
			})
			results <- err
		}(buyer)
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
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, f.availability(t, "vip"))
	assert.Equal(t, int64(500000), f.balance(t, "cash"))
}
