package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ticketcore/internal/models"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// errorResponse is the JSON body of every error reply
type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain errors to HTTP status codes
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrSegmentNotFound),
		errors.Is(err, models.ErrTicketNotFound),
		errors.Is(err, models.ErrBuyerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, models.ErrIdempotencyConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrPerPersonLimitExceeded),
		errors.Is(err, models.ErrLoyaltyRequired),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrUnknownAccount),
		errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusForbidden
	}

	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeJSON decodes a request body, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}
