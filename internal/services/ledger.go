package services

import (
	"fmt"
	"time"

	"ticketcore/internal/models"

	"github.com/google/uuid"
)

// LedgerService validates and records financial transactions against the
// account ledger. Each transaction expands to ledger deltas through a
// fixed posting-rule table; both legs commit together or not at all.
// Reports are pure reads over the immutable journal.
type LedgerService struct {
	repo LedgerRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(repo LedgerRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

// EnsureChart seeds the fixed chart of accounts if the ledger is empty
func (s *LedgerService) EnsureChart() error {
	return s.repo.SeedAccounts(models.DefaultChartOfAccounts())
}

// TransactionInput represents a transaction to post
type TransactionInput struct {
	Kind          models.TransactionKind `json:"kind"`
	Amount        int64                  `json:"amount"` // in cents
	Category      string                 `json:"category"`
	PaymentMethod string                 `json:"payment_method"`
	FlowType      models.FlowType        `json:"flow_type"`
	Description   string                 `json:"description"`
	EventID       string                 `json:"event_id,omitempty"`
	Timestamp     time.Time              `json:"timestamp,omitempty"`
}

// PostTransaction validates the input, derives the ledger legs and records
// everything atomically. Nothing is partially posted: a failed leg rejects
// the whole transaction.
func (s *LedgerService) PostTransaction(in *TransactionInput) (*models.Transaction, error) {
	txn := &models.Transaction{
		ID:            uuid.NewString(),
		Kind:          in.Kind,
		Amount:        in.Amount,
		Category:      in.Category,
		PaymentMethod: in.PaymentMethod,
		FlowType:      in.FlowType,
		Description:   in.Description,
		EventID:       in.EventID,
		Status:        models.TransactionCompleted,
		Timestamp:     in.Timestamp,
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now()
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	legs, err := s.postingLegs(txn)
	if err != nil {
		return nil, err
	}

	if err := s.repo.PostTransaction(txn, legs); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerPostingFailed, err)
	}

	return txn, nil
}

// postingLegs expands a transaction into its ledger deltas per the fixed
// posting-rule table:
//
//	revenue  method +amount  category +amount (revenue account)
//	cost     method -amount  category -amount (expense account)
//	payout   method -amount  category -amount (equity account, optional)
//	refund   method -amount  category -amount (reverses a revenue account)
func (s *LedgerService) postingLegs(txn *models.Transaction) ([]models.Posting, error) {
	method, err := s.resolveAccount(txn.PaymentMethod, models.AccountAsset)
	if err != nil {
		return nil, err
	}

	switch txn.Kind {
	case models.TransactionRevenue:
		category, err := s.resolveAccount(txn.Category, models.AccountRevenue)
		if err != nil {
			return nil, err
		}
		return []models.Posting{
			{TransactionID: txn.ID, AccountID: method.ID, Delta: txn.Amount},
			{TransactionID: txn.ID, AccountID: category.ID, Delta: txn.Amount},
		}, nil

	case models.TransactionCost:
		category, err := s.resolveAccount(txn.Category, models.AccountExpense)
		if err != nil {
			return nil, err
		}
		return []models.Posting{
			{TransactionID: txn.ID, AccountID: method.ID, Delta: -txn.Amount},
			{TransactionID: txn.ID, AccountID: category.ID, Delta: -txn.Amount},
		}, nil

	case models.TransactionRefund:
		category, err := s.resolveAccount(txn.Category, models.AccountRevenue)
		if err != nil {
			return nil, err
		}
		return []models.Posting{
			{TransactionID: txn.ID, AccountID: method.ID, Delta: -txn.Amount},
			{TransactionID: txn.ID, AccountID: category.ID, Delta: -txn.Amount},
		}, nil

	case models.TransactionPayout:
		legs := []models.Posting{
			{TransactionID: txn.ID, AccountID: method.ID, Delta: -txn.Amount},
		}
		if txn.Category != "" {
			category, err := s.resolveAccount(txn.Category, models.AccountEquity)
			if err != nil {
				return nil, err
			}
			legs = append(legs, models.Posting{TransactionID: txn.ID, AccountID: category.ID, Delta: -txn.Amount})
		}
		return legs, nil
	}

	return nil, fmt.Errorf("%w: unrecognized kind %q", models.ErrInvalidInput, txn.Kind)
}

// resolveAccount looks up an account and checks it has the expected type
func (s *LedgerService) resolveAccount(id string, expected models.AccountType) (*models.Account, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: account id is empty", models.ErrUnknownAccount)
	}

	account, err := s.repo.GetAccount(id)
	if err != nil {
		return nil, err
	}

	if account.Type != expected {
		return nil, fmt.Errorf("%w: account %q is %s, expected %s",
			models.ErrInvalidInput, id, account.Type, expected)
	}

	return account, nil
}

// ReverseTransaction posts a new refund that negates a previously posted
// revenue transaction. Posted transactions are never edited; this is the
// only correction mechanism.
func (s *LedgerService) ReverseTransaction(txnID, reason string) (*models.Transaction, error) {
	original, err := s.repo.GetTransaction(txnID)
	if err != nil {
		return nil, err
	}

	if original.Kind != models.TransactionRevenue {
		return nil, fmt.Errorf("%w: only revenue transactions can be reversed", models.ErrInvalidInput)
	}

	return s.PostTransaction(&TransactionInput{
		Kind:          models.TransactionRefund,
		Amount:        original.Amount,
		Category:      original.Category,
		PaymentMethod: original.PaymentMethod,
		FlowType:      original.FlowType,
		Description:   fmt.Sprintf("reversal of %s: %s", txnID, reason),
		EventID:       original.EventID,
	})
}

// ListAccounts returns the chart of accounts with live balances
func (s *LedgerService) ListAccounts() ([]*models.Account, error) {
	return s.repo.ListAccounts()
}

// ListTransactions returns journal entries matching the filter
func (s *LedgerService) ListTransactions(filter TransactionFilter) ([]*models.Transaction, error) {
	return s.repo.ListTransactions(filter)
}
