package services

import (
	"time"

	"ticketcore/internal/models"
)

// InventoryRepository interface for capacity data operations. Reserve and
// Release are the only writers of sold counts; both must be atomic against
// the capacity checks.
type InventoryRepository interface {
	ListEvents() ([]*models.Event, error)
	GetEvent(eventID string) (*models.Event, error)
	GetSegment(eventID, segmentID string) (*models.TicketSegment, error)
	ListSegments(eventID string) ([]*models.TicketSegment, error)

	// Reserve increments segment and event sold counts by res.Quantity only
	// if both stay within their caps, and records the reservation. It applies
	// no partial effect and returns models.ErrCapacityExceeded on failure.
	Reserve(res *models.Reservation) error

	// Release undoes a held reservation's increments. Releasing an unknown,
	// committed or already-released token is a no-op.
	Release(token string) error

	// CommitReservation finalizes a held reservation so its capacity claim
	// becomes permanent and a later Release is a no-op.
	CommitReservation(token string) error
}

// TicketRepository interface for ticket and scan log operations
type TicketRepository interface {
	// MintTickets inserts all tickets or none of them.
	MintTickets(tickets []*models.Ticket) error
	GetTicketByID(id string) (*models.Ticket, error)

	// TransitionStatus applies a compare-and-set status change and reports
	// whether this caller won the transition.
	TransitionStatus(id string, from, to models.TicketStatus) (bool, error)

	AppendScanLog(entry *models.ScanLog) error
	ListScanLogs(eventID string, limit int) ([]*models.ScanLog, error)
}

// TransactionFilter narrows journal queries for reporting
type TransactionFilter struct {
	From time.Time
	To   time.Time
	Kind models.TransactionKind // optional, empty matches all kinds
}

// LedgerRepository interface for account and journal operations
type LedgerRepository interface {
	// SeedAccounts installs the chart of accounts if the ledger is empty.
	SeedAccounts(accounts []models.Account) error
	GetAccount(id string) (*models.Account, error)
	ListAccounts() ([]*models.Account, error)

	// PostTransaction records the transaction and applies every leg, all
	// atomically. No leg is ever applied on its own.
	PostTransaction(txn *models.Transaction, legs []models.Posting) error
	GetTransaction(id string) (*models.Transaction, error)
	ListPostingsByTransaction(txnID string) ([]models.Posting, error)
	ListTransactions(filter TransactionFilter) ([]*models.Transaction, error)

	// SumPostingsByAccount replays the journal up to the given instant and
	// returns the per-account delta sums. Historical reports use this, never
	// live balances.
	SumPostingsByAccount(until time.Time) (map[string]int64, error)
}

// BuyerRepository interface for loyalty and purchase history
type BuyerRepository interface {
	GetOrCreateBuyer(id string) (*models.Buyer, error)
	RecordPurchase(buyerID string, points int, eventIDs []string) error
}

// StoredCheckout is a completed checkout kept for idempotent retries
type StoredCheckout struct {
	Fingerprint string
	Receipt     *models.Receipt
}

// CheckoutRepository interface for idempotency-key bookkeeping
type CheckoutRepository interface {
	// FindCheckout returns nil when the key has not been used.
	FindCheckout(key string) (*StoredCheckout, error)
	SaveCheckout(key, fingerprint string, receipt *models.Receipt) error
}
