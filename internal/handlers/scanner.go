package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticketcore/internal/middleware"
	"ticketcore/internal/models"
	"ticketcore/internal/services"
)

// ScannerHandler exposes gate scanning and the scan log to staff
type ScannerHandler struct {
	scanner *services.ScannerService
}

// NewScannerHandler creates a new scanner handler
func NewScannerHandler(scanner *services.ScannerService) *ScannerHandler {
	return &ScannerHandler{scanner: scanner}
}

// scanRequest is the body of POST /api/scan
type scanRequest struct {
	TicketID string `json:"ticket_id"`
	Gate     string `json:"gate"`
}

// Scan handles POST /api/scan. The response always carries one of the
// three outcomes; a non-2xx reply means the attempt was not recorded and
// the gate should scan again.
func (h *ScannerHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	if req.TicketID == "" {
		respondError(w, fmt.Errorf("%w: ticket id is required", models.ErrInvalidInput))
		return
	}

	scannedBy := ""
	if principal := middleware.GetPrincipalFromContext(r.Context()); principal != nil {
		scannedBy = principal.ID
	}

	entry, err := h.scanner.Scan(req.TicketID, scannedBy, req.Gate)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Void handles POST /api/tickets/{ticketID}/void
func (h *ScannerHandler) Void(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	if err := h.scanner.VoidTicket(ticketID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "voided"})
}

// ScanLog handles GET /api/scan-log?event_id=...&limit=...
func (h *ScannerHandler) ScanLog(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.scanner.ScanLogEntries(eventID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// Summary handles GET /api/scan-log/summary?event_id=...
func (h *ScannerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.scanner.Summary(r.URL.Query().Get("event_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
