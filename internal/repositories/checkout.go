package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"ticketcore/internal/models"
	"ticketcore/internal/services"
)

// CheckoutRepository stores completed checkouts keyed by idempotency key.
// The stored receipt is what a retried request replays.
type CheckoutRepository struct {
	db *sql.DB
}

// NewCheckoutRepository creates a new checkout repository
func NewCheckoutRepository(db *sql.DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

// FindCheckout looks up a stored checkout by idempotency key. Returns nil
// without error when the key has never been used.
func (r *CheckoutRepository) FindCheckout(key string) (*services.StoredCheckout, error) {
	var fingerprint string
	var receiptJSON []byte
	err := r.db.QueryRow(`
		SELECT fingerprint, receipt FROM checkouts WHERE idempotency_key = $1`,
		key).Scan(&fingerprint, &receiptJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find checkout: %w", err)
	}

	var receipt models.Receipt
	if err := json.Unmarshal(receiptJSON, &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode stored receipt: %w", err)
	}

	return &services.StoredCheckout{Fingerprint: fingerprint, Receipt: &receipt}, nil
}

// SaveCheckout records a completed checkout under its idempotency key. A
// concurrent duplicate insert is ignored; the first writer wins.
func (r *CheckoutRepository) SaveCheckout(key, fingerprint string, receipt *models.Receipt) error {
	receiptJSON, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO checkouts (idempotency_key, fingerprint, receipt, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		key, fingerprint, receiptJSON, receipt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save checkout: %w", err)
	}

	return nil
}
