package handlers

import (
	"fmt"
	"net/http"

	"ticketcore/internal/middleware"
	"ticketcore/internal/models"
	"ticketcore/internal/services"
)

// CheckoutHandler exposes the purchase operation
type CheckoutHandler struct {
	checkout *services.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Checkout handles POST /api/checkout. The buyer is the calling principal.
// Retried requests with the same idempotency key replay the original
// receipt.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req services.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	if principal := middleware.GetPrincipalFromContext(r.Context()); principal != nil {
		req.BuyerID = principal.ID
	}

	receipt, err := h.checkout.Checkout(&req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}
