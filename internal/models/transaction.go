package models

import (
	"errors"
	"time"
)

// TransactionKind represents the kind of a financial transaction
type TransactionKind string

const (
	TransactionRevenue TransactionKind = "revenue"
	TransactionCost    TransactionKind = "cost"
	TransactionPayout  TransactionKind = "payout"
	TransactionRefund  TransactionKind = "refund"
)

// FlowType classifies a transaction for cash-flow reporting
type FlowType string

const (
	FlowOperating FlowType = "operating"
	FlowInvesting FlowType = "investing"
	FlowFinancing FlowType = "financing"
)

// TransactionStatus represents the posting status of a transaction
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction represents a discrete financial event. Transactions are
// immutable once posted; corrections are new reversing transactions.
type Transaction struct {
	ID            string            `json:"id" db:"id"`
	Kind          TransactionKind   `json:"kind" db:"kind"`
	Amount        int64             `json:"amount" db:"amount"` // in cents, always positive
	Category      string            `json:"category" db:"category"` // account id of the category leg
	PaymentMethod string            `json:"payment_method" db:"payment_method"`
	FlowType      FlowType          `json:"flow_type" db:"flow_type"`
	Description   string            `json:"description" db:"description"`
	EventID       string            `json:"event_id,omitempty" db:"event_id"`
	Status        TransactionStatus `json:"status" db:"status"`
	Timestamp     time.Time         `json:"timestamp" db:"occurred_at"`
}

// Posting represents one ledger delta applied to an account as part of a
// transaction. Both legs of a transaction commit together or not at all.
type Posting struct {
	TransactionID string `json:"transaction_id" db:"transaction_id"`
	AccountID     string `json:"account_id" db:"account_id"`
	Delta         int64  `json:"delta" db:"delta"` // signed, in cents
}

// Validate validates the transaction data
func (t *Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}

	if err := t.validateKind(); err != nil {
		return err
	}

	if err := t.validateFlowType(); err != nil {
		return err
	}

	if t.PaymentMethod == "" {
		return errors.New("payment method is required")
	}

	return nil
}

// validateKind validates the transaction kind
func (t *Transaction) validateKind() error {
	switch t.Kind {
	case TransactionRevenue, TransactionCost, TransactionPayout, TransactionRefund:
		return nil
	default:
		return errors.New("invalid transaction kind")
	}
}

// validateFlowType validates the cash-flow classification
func (t *Transaction) validateFlowType() error {
	switch t.FlowType {
	case FlowOperating, FlowInvesting, FlowFinancing:
		return nil
	default:
		return errors.New("invalid flow type")
	}
}

// IsInflow returns true if the transaction brings money in
func (t *Transaction) IsInflow() bool {
	return t.Kind == TransactionRevenue
}
