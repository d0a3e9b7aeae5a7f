package repositories

import (
	"database/sql"
	"fmt"

	"ticketcore/internal/models"

	"github.com/lib/pq"
)

// BuyerRepository persists buyer loyalty state
type BuyerRepository struct {
	db *sql.DB
}

// NewBuyerRepository creates a new buyer repository
func NewBuyerRepository(db *sql.DB) *BuyerRepository {
	return &BuyerRepository{db: db}
}

// GetOrCreateBuyer loads a buyer's loyalty record, creating an empty one on
// first sight. Buyers are not pre-registered; any principal can purchase.
func (r *BuyerRepository) GetOrCreateBuyer(buyerID string) (*models.Buyer, error) {
	_, err := r.db.Exec(`
		INSERT INTO buyers (id, loyalty_points, purchase_history)
		VALUES ($1, 0, '{}')
		ON CONFLICT (id) DO NOTHING`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create buyer: %w", err)
	}

	buyer := &models.Buyer{}
	err = r.db.QueryRow(`
		SELECT id, loyalty_points, purchase_history FROM buyers WHERE id = $1`,
		buyerID).Scan(&buyer.ID, &buyer.LoyaltyPoints, pq.Array(&buyer.PurchaseHistory))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrBuyerNotFound
		}
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}

	return buyer, nil
}

// RecordPurchase credits loyalty points and appends the purchased events to
// the buyer's history in one statement.
func (r *BuyerRepository) RecordPurchase(buyerID string, points int, eventIDs []string) error {
	result, err := r.db.Exec(`
		UPDATE buyers
		SET loyalty_points = loyalty_points + $2,
		    purchase_history = purchase_history || $3
		WHERE id = $1`,
		buyerID, points, pq.Array(eventIDs))
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrBuyerNotFound
	}

	return nil
}
