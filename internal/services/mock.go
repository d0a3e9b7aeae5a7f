package services

import (
	"sort"
	"sync"
	"time"

	"ticketcore/internal/models"
)

// In-memory repository implementations for tests and local development.
// Mutations hold the repository mutex for their full duration, giving the
// same atomicity the SQL implementations get from guarded updates.

// MockInventoryRepository is an in-memory InventoryRepository
type MockInventoryRepository struct {
	mu           sync.Mutex
	events       map[string]*models.Event
	segments     map[string]*models.TicketSegment // keyed by eventID/segmentID
	reservations map[string]*models.Reservation
}

// NewMockInventoryRepository creates an empty in-memory inventory
func NewMockInventoryRepository() *MockInventoryRepository {
	return &MockInventoryRepository{
		events:       make(map[string]*models.Event),
		segments:     make(map[string]*models.TicketSegment),
		reservations: make(map[string]*models.Reservation),
	}
}

// AddEvent seeds an event
func (m *MockInventoryRepository) AddEvent(event *models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *event
	m.events[event.ID] = &clone
}

// AddSegment seeds a segment
func (m *MockInventoryRepository) AddSegment(segment *models.TicketSegment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *segment
	m.segments[segment.EventID+"/"+segment.ID] = &clone
}

// ListEvents returns all seeded events
func (m *MockInventoryRepository) ListEvents() ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]*models.Event, 0, len(m.events))
	for _, event := range m.events {
		clone := *event
		events = append(events, &clone)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

// GetEvent returns an event by id
func (m *MockInventoryRepository) GetEvent(eventID string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[eventID]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	clone := *event
	return &clone, nil
}

// GetSegment returns a segment by event and segment id
func (m *MockInventoryRepository) GetSegment(eventID, segmentID string) (*models.TicketSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	segment, ok := m.segments[eventID+"/"+segmentID]
	if !ok {
		return nil, models.ErrSegmentNotFound
	}
	clone := *segment
	return &clone, nil
}

// ListSegments returns an event's segments
func (m *MockInventoryRepository) ListSegments(eventID string) ([]*models.TicketSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var segments []*models.TicketSegment
	for _, segment := range m.segments {
		if segment.EventID == eventID {
			clone := *segment
			segments = append(segments, &clone)
		}
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].ID < segments[j].ID })
	return segments, nil
}

// Reserve applies the compare-and-increment under the repository lock
func (m *MockInventoryRepository) Reserve(res *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	segment, ok := m.segments[res.EventID+"/"+res.SegmentID]
	if !ok {
		return models.ErrSegmentNotFound
	}

	event, ok := m.events[res.EventID]
	if !ok {
		return models.ErrEventNotFound
	}

	if segment.Sold+res.Quantity > segment.Capacity || event.Sold+res.Quantity > event.Capacity {
		return models.ErrCapacityExceeded
	}

	segment.Sold += res.Quantity
	event.Sold += res.Quantity

	clone := *res
	m.reservations[res.Token] = &clone
	return nil
}

// Release undoes a held reservation; unknown or settled tokens are no-ops
func (m *MockInventoryRepository) Release(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reservation, ok := m.reservations[token]
	if !ok || reservation.Status != models.ReservationHeld {
		return nil
	}

	reservation.Status = models.ReservationReleased
	if segment, ok := m.segments[reservation.EventID+"/"+reservation.SegmentID]; ok {
		segment.Sold -= reservation.Quantity
	}
	if event, ok := m.events[reservation.EventID]; ok {
		event.Sold -= reservation.Quantity
	}
	return nil
}

// CommitReservation marks a held reservation permanent
func (m *MockInventoryRepository) CommitReservation(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reservation, ok := m.reservations[token]
	if !ok || reservation.Status != models.ReservationHeld {
		return nil
	}
	reservation.Status = models.ReservationCommitted
	return nil
}

// MockTicketRepository is an in-memory TicketRepository
type MockTicketRepository struct {
	mu       sync.Mutex
	tickets  map[string]*models.Ticket
	scanLogs []*models.ScanLog

	// MintErr, when set, makes MintTickets fail for rollback tests.
	MintErr error
}

// NewMockTicketRepository creates an empty in-memory ticket store
func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{tickets: make(map[string]*models.Ticket)}
}

// MintTickets inserts all tickets or none
func (m *MockTicketRepository) MintTickets(tickets []*models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.MintErr != nil {
		return m.MintErr
	}

	for _, ticket := range tickets {
		clone := *ticket
		m.tickets[ticket.ID] = &clone
	}
	return nil
}

// GetTicketByID returns a ticket by id
func (m *MockTicketRepository) GetTicketByID(id string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	clone := *ticket
	return &clone, nil
}

// TransitionStatus applies a compare-and-set status change
func (m *MockTicketRepository) TransitionStatus(id string, from, to models.TicketStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[id]
	if !ok {
		return false, models.ErrTicketNotFound
	}

	if ticket.Status != from {
		return false, nil
	}
	ticket.Status = to
	return true, nil
}

// AppendScanLog records one scan attempt
func (m *MockTicketRepository) AppendScanLog(entry *models.ScanLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *entry
	m.scanLogs = append(m.scanLogs, &clone)
	return nil
}

// ListScanLogs returns scan attempts, newest first. A limit of 0 returns
// everything; an empty event id matches all events.
func (m *MockTicketRepository) ListScanLogs(eventID string, limit int) ([]*models.ScanLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []*models.ScanLog
	for i := len(m.scanLogs) - 1; i >= 0; i-- {
		entry := m.scanLogs[i]
		if eventID != "" && entry.EventID != eventID {
			continue
		}
		clone := *entry
		entries = append(entries, &clone)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// MockLedgerRepository is an in-memory LedgerRepository
type MockLedgerRepository struct {
	mu           sync.Mutex
	accounts     map[string]*models.Account
	transactions map[string]*models.Transaction
	postings     []models.Posting

	// PostErr, when set, makes PostTransaction fail for rollback tests.
	PostErr error
}

// NewMockLedgerRepository creates an empty in-memory ledger
func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		accounts:     make(map[string]*models.Account),
		transactions: make(map[string]*models.Transaction),
	}
}

// SeedAccounts installs the chart when the ledger is empty
func (m *MockLedgerRepository) SeedAccounts(accounts []models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.accounts) > 0 {
		return nil
	}
	for _, account := range accounts {
		clone := account
		m.accounts[account.ID] = &clone
	}
	return nil
}

// GetAccount returns an account by id
func (m *MockLedgerRepository) GetAccount(id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrUnknownAccount
	}
	clone := *account
	return &clone, nil
}

// ListAccounts returns all accounts
func (m *MockLedgerRepository) ListAccounts() ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make([]*models.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		clone := *account
		accounts = append(accounts, &clone)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// PostTransaction records the transaction and applies every leg atomically
func (m *MockLedgerRepository) PostTransaction(txn *models.Transaction, legs []models.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PostErr != nil {
		return m.PostErr
	}

	for _, leg := range legs {
		if _, ok := m.accounts[leg.AccountID]; !ok {
			return models.ErrUnknownAccount
		}
	}

	clone := *txn
	m.transactions[txn.ID] = &clone
	for _, leg := range legs {
		m.accounts[leg.AccountID].Balance += leg.Delta
		m.postings = append(m.postings, leg)
	}
	return nil
}

// GetTransaction returns a transaction by id
func (m *MockLedgerRepository) GetTransaction(id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txn, ok := m.transactions[id]
	if !ok {
		return nil, models.ErrInvalidInput
	}
	clone := *txn
	return &clone, nil
}

// ListPostingsByTransaction returns the legs of one transaction
func (m *MockLedgerRepository) ListPostingsByTransaction(txnID string) ([]models.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var legs []models.Posting
	for _, leg := range m.postings {
		if leg.TransactionID == txnID {
			legs = append(legs, leg)
		}
	}
	return legs, nil
}

// ListTransactions returns journal entries matching the filter, oldest
// first.
func (m *MockLedgerRepository) ListTransactions(filter TransactionFilter) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []*models.Transaction
	for _, txn := range m.transactions {
		if !filter.From.IsZero() && txn.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && txn.Timestamp.After(filter.To) {
			continue
		}
		if filter.Kind != "" && txn.Kind != filter.Kind {
			continue
		}
		clone := *txn
		matches = append(matches, &clone)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Timestamp.Before(matches[j].Timestamp) })
	return matches, nil
}

// SumPostingsByAccount replays postings up to the given instant
func (m *MockLedgerRepository) SumPostingsByAccount(until time.Time) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sums := make(map[string]int64)
	for _, leg := range m.postings {
		txn, ok := m.transactions[leg.TransactionID]
		if !ok {
			continue
		}
		if !until.IsZero() && txn.Timestamp.After(until) {
			continue
		}
		sums[leg.AccountID] += leg.Delta
	}
	return sums, nil
}

// MockBuyerRepository is an in-memory BuyerRepository
type MockBuyerRepository struct {
	mu     sync.Mutex
	buyers map[string]*models.Buyer
}

// NewMockBuyerRepository creates an empty in-memory buyer store
func NewMockBuyerRepository() *MockBuyerRepository {
	return &MockBuyerRepository{buyers: make(map[string]*models.Buyer)}
}

// SetBuyer seeds a buyer
func (m *MockBuyerRepository) SetBuyer(buyer *models.Buyer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *buyer
	clone.PurchaseHistory = append([]string(nil), buyer.PurchaseHistory...)
	m.buyers[buyer.ID] = &clone
}

// GetOrCreateBuyer returns the buyer, creating an empty record if needed
func (m *MockBuyerRepository) GetOrCreateBuyer(id string) (*models.Buyer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buyer, ok := m.buyers[id]
	if !ok {
		buyer = &models.Buyer{ID: id}
		m.buyers[id] = buyer
	}

	clone := *buyer
	clone.PurchaseHistory = append([]string(nil), buyer.PurchaseHistory...)
	return &clone, nil
}

// RecordPurchase credits points and appends purchase history
func (m *MockBuyerRepository) RecordPurchase(buyerID string, points int, eventIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buyer, ok := m.buyers[buyerID]
	if !ok {
		buyer = &models.Buyer{ID: buyerID}
		m.buyers[buyerID] = buyer
	}

	buyer.LoyaltyPoints += points
	buyer.PurchaseHistory = append(buyer.PurchaseHistory, eventIDs...)
	return nil
}

// MockCheckoutRepository is an in-memory CheckoutRepository
type MockCheckoutRepository struct {
	mu        sync.Mutex
	checkouts map[string]*StoredCheckout
}

// NewMockCheckoutRepository creates an empty in-memory checkout store
func NewMockCheckoutRepository() *MockCheckoutRepository {
	return &MockCheckoutRepository{checkouts: make(map[string]*StoredCheckout)}
}

// FindCheckout returns the stored checkout for a key, or nil
func (m *MockCheckoutRepository) FindCheckout(key string) (*StoredCheckout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.checkouts[key]
	if !ok {
		return nil, nil
	}
	return stored, nil
}

// SaveCheckout stores a completed checkout under its key
func (m *MockCheckoutRepository) SaveCheckout(key, fingerprint string, receipt *models.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkouts[key] = &StoredCheckout{Fingerprint: fingerprint, Receipt: receipt}
	return nil
}
