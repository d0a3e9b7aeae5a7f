package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ticketcore/internal/models"
	"ticketcore/internal/services"
)

// LedgerHandler exposes the transaction journal, accounts and reports
type LedgerHandler struct {
	ledger *services.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledger *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// PostTransaction handles POST /api/transactions
func (h *LedgerHandler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	var in services.TransactionInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	txn, err := h.ledger.PostTransaction(&in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, txn)
}

// ListTransactions handles GET /api/transactions?from=...&to=...&kind=...
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		respondError(w, err)
		return
	}

	transactions, err := h.ledger.ListTransactions(filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

// reverseRequest is the body of POST /api/transactions/{txnID}/reverse
type reverseRequest struct {
	Reason string `json:"reason"`
}

// Reverse handles POST /api/transactions/{txnID}/reverse
func (h *LedgerHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req reverseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	txn, err := h.ledger.ReverseTransaction(chi.URLParam(r, "txnID"), req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, txn)
}

// ListAccounts handles GET /api/accounts
func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListAccounts()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// Report handles GET /api/reports/{reportType}?from=...&to=...
func (h *LedgerHandler) Report(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		respondError(w, err)
		return
	}

	report, err := h.ledger.GenerateReport(chi.URLParam(r, "reportType"), from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// parseDateRange reads from/to query parameters as RFC 3339 dates. Missing
// bounds default to the epoch and now.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now()

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, fmt.Errorf("%w: invalid from date: %v", models.ErrInvalidInput, err)
		}
		from = parsed
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, fmt.Errorf("%w: invalid to date: %v", models.ErrInvalidInput, err)
		}
		to = parsed
	}

	return from, to, nil
}

// parseTransactionFilter builds a journal filter from query parameters
func parseTransactionFilter(r *http.Request) (services.TransactionFilter, error) {
	from, to, err := parseDateRange(r)
	if err != nil {
		return services.TransactionFilter{}, err
	}

	filter := services.TransactionFilter{From: from, To: to}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filter.Kind = models.TransactionKind(kind)
	}

	return filter, nil
}
