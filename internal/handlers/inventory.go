package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ticketcore/internal/middleware"
	"ticketcore/internal/models"
	"ticketcore/internal/services"
)

// InventoryHandler exposes the event catalogue and reservation operations
type InventoryHandler struct {
	inventory *services.InventoryService
	buyers    services.BuyerRepository
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventory *services.InventoryService, buyers services.BuyerRepository) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, buyers: buyers}
}

// ListEvents handles GET /api/events
func (h *InventoryHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.inventory.ListEvents()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// Availability handles GET /api/events/{eventID}/availability
func (h *InventoryHandler) Availability(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	availability, err := h.inventory.Availability(eventID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, availability)
}

// Reserve handles POST /api/inventory/reserve. The buyer is always the
// calling principal; a buyer_id in the body is ignored.
func (h *InventoryHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req services.ReserveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	if principal := middleware.GetPrincipalFromContext(r.Context()); principal != nil {
		req.BuyerID = principal.ID
	}

	buyer, err := h.buyers.GetOrCreateBuyer(req.BuyerID)
	if err != nil {
		respondError(w, err)
		return
	}
	req.LoyalBuyer = buyer.IsLoyalCustomer()

	reservation, err := h.inventory.Reserve(&req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, reservation)
}

// releaseRequest is the body of POST /api/inventory/release
type releaseRequest struct {
	Token string `json:"token"`
}

// Release handles POST /api/inventory/release
func (h *InventoryHandler) Release(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	if req.Token == "" {
		respondError(w, fmt.Errorf("%w: token is required", models.ErrInvalidInput))
		return
	}

	if err := h.inventory.Release(req.Token); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "released"})
}
