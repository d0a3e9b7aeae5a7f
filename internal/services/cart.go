package services

import (
	"fmt"
	"sync"

	"ticketcore/internal/models"
)

// CartService accumulates a buyer's pending selections before checkout.
// Carts are per-buyer and consume no inventory; capacity is only claimed
// when checkout runs.
type CartService struct {
	inventory *InventoryService

	mu    sync.Mutex
	carts map[string]*models.Cart
}

// NewCartService creates a new cart service
func NewCartService(inventory *InventoryService) *CartService {
	return &CartService{
		inventory: inventory,
		carts:     make(map[string]*models.Cart),
	}
}

// AddItem adds quantity units of a segment to the buyer's cart, merging
// with an existing line for the same segment. Prices come from the
// segment, not the caller.
func (s *CartService) AddItem(buyerID, eventID, segmentID string, quantity int) (*models.Cart, error) {
	if buyerID == "" {
		return nil, fmt.Errorf("%w: buyer id is required", models.ErrInvalidInput)
	}

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", models.ErrInvalidInput)
	}

	segment, err := s.inventory.GetSegment(eventID, segmentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[buyerID]
	if !ok {
		cart = &models.Cart{BuyerID: buyerID}
		s.carts[buyerID] = cart
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		if item.EventID == eventID && item.SegmentID == segmentID {
			item.Quantity += quantity
			item.LineTotal = item.UnitPrice * int64(item.Quantity)
			return copyCart(cart), nil
		}
	}

	cart.Items = append(cart.Items, models.CartItem{
		EventID:   eventID,
		SegmentID: segmentID,
		Quantity:  quantity,
		UnitPrice: segment.Price,
		LineTotal: segment.Price * int64(quantity),
	})

	return copyCart(cart), nil
}

// GetCart returns the buyer's current cart, which may be empty
func (s *CartService) GetCart(buyerID string) *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[buyerID]
	if !ok {
		return &models.Cart{BuyerID: buyerID}
	}
	return copyCart(cart)
}

// ClearCart empties the buyer's cart
func (s *CartService) ClearCart(buyerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, buyerID)
}

// CartTotals represents the displayed pricing of a cart
type CartTotals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// Totals computes the cart pricing for a buyer. The loyalty discount is
// applied per line with the same rule checkout uses, so the displayed
// total always matches the amount that would be charged.
func (s *CartService) Totals(cart *models.Cart, buyer *models.Buyer) CartTotals {
	discounted := buyer != nil && buyer.HasLoyaltyDiscount()

	var totals CartTotals
	for _, item := range cart.Items {
		totals.Subtotal += item.LineTotal
		totals.Total += chargedLineTotal(item.LineTotal, discounted)
	}
	totals.Discount = totals.Subtotal - totals.Total

	return totals
}

// copyCart returns a detached copy so callers never alias internal state
func copyCart(cart *models.Cart) *models.Cart {
	clone := &models.Cart{BuyerID: cart.BuyerID}
	clone.Items = append(clone.Items, cart.Items...)
	return clone
}
