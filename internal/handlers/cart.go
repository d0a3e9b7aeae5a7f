package handlers

import (
	"fmt"
	"net/http"

	"ticketcore/internal/middleware"
	"ticketcore/internal/models"
	"ticketcore/internal/services"
)

// CartHandler exposes the per-buyer pending cart
type CartHandler struct {
	cart   *services.CartService
	buyers services.BuyerRepository
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cart *services.CartService, buyers services.BuyerRepository) *CartHandler {
	return &CartHandler{cart: cart, buyers: buyers}
}

// addItemRequest is the body of POST /api/cart/items
type addItemRequest struct {
	EventID   string `json:"event_id"`
	SegmentID string `json:"segment_id"`
	Quantity  int    `json:"quantity"`
}

// cartResponse is a cart with its computed totals
type cartResponse struct {
	Cart   *models.Cart        `json:"cart"`
	Totals services.CartTotals `json:"totals"`
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	cart, err := h.cart.AddItem(principal.ID, req.EventID, req.SegmentID, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}

	h.respondWithTotals(w, http.StatusCreated, cart, principal.ID)
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	cart := h.cart.GetCart(principal.ID)
	h.respondWithTotals(w, http.StatusOK, cart, principal.ID)
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	h.cart.ClearCart(principal.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// respondWithTotals prices the cart against the buyer's loyalty state
func (h *CartHandler) respondWithTotals(w http.ResponseWriter, status int, cart *models.Cart, buyerID string) {
	buyer, err := h.buyers.GetOrCreateBuyer(buyerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, status, cartResponse{
		Cart:   cart,
		Totals: h.cart.Totals(cart, buyer),
	})
}
