package services

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"ticketcore/internal/models"

	"github.com/google/uuid"
)

// loyaltyDiscountPercent is applied per line when the buyer qualifies, so
// the posted revenue always equals the charged amount.
const loyaltyDiscountPercent = 10

// pointsPerCents is the loyalty earn rate: one point per whole 100 cents
// charged.
const pointsPerCents = 100

// CheckoutService orchestrates a purchase: reserve inventory, post
// revenue, mint tickets, update the buyer. Any failure after a successful
// reservation triggers compensating releases; the checkout is
// all-or-nothing across lines.
type CheckoutService struct {
	inventory *InventoryService
	ledger    *LedgerService
	tickets   TicketRepository
	buyers    BuyerRepository
	checkouts CheckoutRepository
	logger    *slog.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	inventory *InventoryService,
	ledger *LedgerService,
	tickets TicketRepository,
	buyers BuyerRepository,
	checkouts CheckoutRepository,
	logger *slog.Logger,
) *CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}

	return &CheckoutService{
		inventory: inventory,
		ledger:    ledger,
		tickets:   tickets,
		buyers:    buyers,
		checkouts: checkouts,
		logger:    logger,
	}
}

// CheckoutRequest represents a checkout attempt. The idempotency key makes
// retries after timeouts safe: replaying a completed checkout returns the
// original receipt instead of charging again.
type CheckoutRequest struct {
	BuyerID        string            `json:"buyer_id"`
	IdempotencyKey string            `json:"idempotency_key"`
	PaymentMethod  string            `json:"payment_method"` // cash, bank or mpesa
	Items          []models.CartItem `json:"items"`
}

// Checkout runs the whole purchase. On any failure no tickets exist, no
// revenue is posted and every reservation taken for this attempt has been
// released.
func (s *CheckoutService) Checkout(req *CheckoutRequest) (*models.Receipt, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	fingerprint := checkoutFingerprint(req)

	if existing, err := s.checkouts.FindCheckout(req.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	} else if existing != nil {
		if existing.Fingerprint != fingerprint {
			return nil, models.ErrIdempotencyConflict
		}
		return existing.Receipt, nil
	}

	buyer, err := s.buyers.GetOrCreateBuyer(req.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}

	// Reserve every line in a stable order so concurrent checkouts touching
	// the same segments cannot deadlock each other.
	lines := make([]models.CartItem, len(req.Items))
	copy(lines, req.Items)
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].EventID != lines[j].EventID {
			return lines[i].EventID < lines[j].EventID
		}
		return lines[i].SegmentID < lines[j].SegmentID
	})

	reservations, err := s.reserveLines(buyer, lines)
	if err != nil {
		return nil, err
	}

	receipt, err := s.completeCheckout(req, buyer, reservations)
	if err != nil {
		s.releaseAll(reservations)
		return nil, err
	}

	return receipt, nil
}

// validateRequest rejects malformed checkouts before any mutation
func (s *CheckoutService) validateRequest(req *CheckoutRequest) error {
	if req.BuyerID == "" {
		return fmt.Errorf("%w: buyer id is required", models.ErrInvalidInput)
	}

	if req.IdempotencyKey == "" {
		return fmt.Errorf("%w: idempotency key is required", models.ErrInvalidInput)
	}

	if req.PaymentMethod == "" {
		return fmt.Errorf("%w: payment method is required", models.ErrInvalidInput)
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", models.ErrInvalidInput)
	}

	for _, item := range req.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
	}

	return nil
}

// reserveLines reserves every cart line, releasing all prior reservations
// if any line fails.
func (s *CheckoutService) reserveLines(buyer *models.Buyer, lines []models.CartItem) ([]*models.Reservation, error) {
	reservations := make([]*models.Reservation, 0, len(lines))
	priorQuantities := make(map[string]int)

	for _, line := range lines {
		key := line.EventID + "/" + line.SegmentID
		reservation, err := s.inventory.Reserve(&ReserveRequest{
			EventID:       line.EventID,
			SegmentID:     line.SegmentID,
			BuyerID:       buyer.ID,
			Quantity:      line.Quantity,
			PriorQuantity: priorQuantities[key],
			LoyalBuyer:    buyer.IsLoyalCustomer(),
		})
		if err != nil {
			s.releaseAll(reservations)
			return nil, fmt.Errorf("failed to reserve %d unit(s) of segment %s: %w",
				line.Quantity, line.SegmentID, err)
		}

		priorQuantities[key] += line.Quantity
		reservations = append(reservations, reservation)
	}

	return reservations, nil
}

// completeCheckout posts revenue, mints tickets and updates the buyer once
// every reservation is held. The caller releases reservations on error.
func (s *CheckoutService) completeCheckout(req *CheckoutRequest, buyer *models.Buyer, reservations []*models.Reservation) (*models.Receipt, error) {
	discounted := buyer.HasLoyaltyDiscount()

	var subtotal, total int64
	posted := make([]*models.Transaction, 0, len(reservations))

	for _, reservation := range reservations {
		lineTotal := reservation.UnitPrice * int64(reservation.Quantity)
		charged := chargedLineTotal(lineTotal, discounted)
		subtotal += lineTotal
		total += charged

		txn, err := s.ledger.PostTransaction(&TransactionInput{
			Kind:          models.TransactionRevenue,
			Amount:        charged,
			Category:      "ticket_sales_revenue",
			PaymentMethod: req.PaymentMethod,
			FlowType:      models.FlowOperating,
			Description:   fmt.Sprintf("ticket sale: %d x %s", reservation.Quantity, reservation.SegmentID),
			EventID:       reservation.EventID,
		})
		if err != nil {
			s.reverseAll(posted)
			return nil, fmt.Errorf("checkout aborted: %w", err)
		}
		posted = append(posted, txn)
	}

	tickets := mintedTickets(req.BuyerID, reservations)
	if err := s.tickets.MintTickets(tickets); err != nil {
		s.reverseAll(posted)
		return nil, fmt.Errorf("failed to mint tickets: %w", err)
	}

	for _, reservation := range reservations {
		if err := s.inventory.Commit(reservation.Token); err != nil {
			s.logger.Warn("failed to commit reservation",
				"token", reservation.Token, "error", err)
		}
	}

	if err := s.buyers.RecordPurchase(req.BuyerID, int(total/pointsPerCents), purchasedEventIDs(reservations)); err != nil {
		// The sale itself is complete; losing loyalty credit is not worth
		// unwinding tickets and postings over.
		s.logger.Warn("failed to record loyalty purchase", "buyer", req.BuyerID, "error", err)
	}

	receipt := &models.Receipt{
		IdempotencyKey: req.IdempotencyKey,
		BuyerID:        req.BuyerID,
		Tickets:        tickets,
		Subtotal:       subtotal,
		Discount:       subtotal - total,
		Total:          total,
		CreatedAt:      time.Now(),
	}

	if err := s.checkouts.SaveCheckout(req.IdempotencyKey, checkoutFingerprint(req), receipt); err != nil {
		s.logger.Warn("failed to store checkout for idempotent retries",
			"key", req.IdempotencyKey, "error", err)
	}

	return receipt, nil
}

// releaseAll applies the compensating release for every reservation taken
// in this checkout. Release is idempotent, so double compensation is safe.
func (s *CheckoutService) releaseAll(reservations []*models.Reservation) {
	for _, reservation := range reservations {
		if err := s.inventory.Release(reservation.Token); err != nil {
			s.logger.Error("failed to release reservation",
				"token", reservation.Token, "error", err)
		}
	}
}

// reverseAll posts reversing transactions for revenue already recorded by
// a checkout that cannot complete.
func (s *CheckoutService) reverseAll(posted []*models.Transaction) {
	for _, txn := range posted {
		if _, err := s.ledger.ReverseTransaction(txn.ID, "checkout rollback"); err != nil {
			s.logger.Error("failed to reverse transaction", "transaction", txn.ID, "error", err)
		}
	}
}

// chargedLineTotal applies the loyalty discount to one line
func chargedLineTotal(lineTotal int64, discounted bool) int64 {
	if !discounted {
		return lineTotal
	}
	return lineTotal - lineTotal*loyaltyDiscountPercent/100
}

// mintedTickets builds one purchased ticket per reserved unit
func mintedTickets(buyerID string, reservations []*models.Reservation) []*models.Ticket {
	now := time.Now()

	var tickets []*models.Ticket
	for _, reservation := range reservations {
		for i := 0; i < reservation.Quantity; i++ {
			tickets = append(tickets, &models.Ticket{
				ID:          uuid.NewString(),
				OwnerID:     buyerID,
				EventID:     reservation.EventID,
				SegmentID:   reservation.SegmentID,
				Status:      models.TicketPurchased,
				PurchasedAt: now,
			})
		}
	}

	return tickets
}

// purchasedEventIDs returns the distinct event ids in a checkout
func purchasedEventIDs(reservations []*models.Reservation) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, reservation := range reservations {
		if !seen[reservation.EventID] {
			seen[reservation.EventID] = true
			ids = append(ids, reservation.EventID)
		}
	}
	return ids
}

// checkoutFingerprint derives a stable digest of the request so a reused
// idempotency key with different contents can be rejected.
func checkoutFingerprint(req *CheckoutRequest) string {
	lines := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, fmt.Sprintf("%s/%s/%d", item.EventID, item.SegmentID, item.Quantity))
	}
	sort.Strings(lines)

	return fmt.Sprintf("%s|%s|%s", req.BuyerID, req.PaymentMethod, strings.Join(lines, ","))
}
