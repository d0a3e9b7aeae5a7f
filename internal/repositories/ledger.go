package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"ticketcore/internal/models"
	"ticketcore/internal/services"
)

// LedgerRepository persists accounts, transactions and their postings.
// Postings are append-only; account balances are maintained alongside them
// inside the same transaction so the two can never drift apart.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// SeedAccounts inserts the chart of accounts if the table is empty
func (r *LedgerRepository) SeedAccounts(accounts []models.Account) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin account seed: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, account := range accounts {
		_, err := tx.Exec(`
			INSERT INTO accounts (id, name, type, balance)
			VALUES ($1, $2, $3, $4)`,
			account.ID, account.Name, account.Type, account.Balance)
		if err != nil {
			return fmt.Errorf("failed to seed account %s: %w", account.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account seed: %w", err)
	}

	return nil
}

// GetAccount retrieves an account by ID
func (r *LedgerRepository) GetAccount(accountID string) (*models.Account, error) {
	account := &models.Account{}
	err := r.db.QueryRow(`
		SELECT id, name, type, balance FROM accounts WHERE id = $1`,
		accountID).Scan(&account.ID, &account.Name, &account.Type, &account.Balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownAccount, accountID)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListAccounts retrieves the chart of accounts
func (r *LedgerRepository) ListAccounts() ([]*models.Account, error) {
	rows, err := r.db.Query(`SELECT id, name, type, balance FROM accounts ORDER BY type, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account := &models.Account{}
		if err := rows.Scan(&account.ID, &account.Name, &account.Type, &account.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// PostTransaction records the transaction, its postings and the resulting
// balance changes atomically. A failure on any leg rolls back the whole
// posting.
func (r *LedgerRepository) PostTransaction(txn *models.Transaction, legs []models.Posting) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin posting: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO transactions (id, kind, amount, category, payment_method, flow_type, description, event_id, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		txn.ID, txn.Kind, txn.Amount, txn.Category, txn.PaymentMethod,
		txn.FlowType, txn.Description, nullableString(txn.EventID), txn.Status, txn.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for _, leg := range legs {
		_, err := tx.Exec(`
			INSERT INTO postings (transaction_id, account_id, delta)
			VALUES ($1, $2, $3)`,
			leg.TransactionID, leg.AccountID, leg.Delta)
		if err != nil {
			return fmt.Errorf("failed to insert posting: %w", err)
		}

		result, err := tx.Exec(`
			UPDATE accounts SET balance = balance + $2 WHERE id = $1`,
			leg.AccountID, leg.Delta)
		if err != nil {
			return fmt.Errorf("failed to apply posting to account %s: %w", leg.AccountID, err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		} else if affected == 0 {
			return fmt.Errorf("%w: %s", models.ErrUnknownAccount, leg.AccountID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit posting: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by ID
func (r *LedgerRepository) GetTransaction(txnID string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var eventID sql.NullString
	err := r.db.QueryRow(`
		SELECT id, kind, amount, category, payment_method, flow_type, description, event_id, status, occurred_at
		FROM transactions
		WHERE id = $1`,
		txnID).Scan(&txn.ID, &txn.Kind, &txn.Amount, &txn.Category, &txn.PaymentMethod,
		&txn.FlowType, &txn.Description, &eventID, &txn.Status, &txn.Timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: transaction %s not found", models.ErrInvalidInput, txnID)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	txn.EventID = eventID.String
	return txn, nil
}

// ListPostingsByTransaction retrieves the ledger legs of a transaction
func (r *LedgerRepository) ListPostingsByTransaction(txnID string) ([]models.Posting, error) {
	rows, err := r.db.Query(`
		SELECT transaction_id, account_id, delta
		FROM postings
		WHERE transaction_id = $1
		ORDER BY account_id`, txnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	defer rows.Close()

	var postings []models.Posting
	for rows.Next() {
		var posting models.Posting
		if err := rows.Scan(&posting.TransactionID, &posting.AccountID, &posting.Delta); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, posting)
	}

	return postings, rows.Err()
}

// ListTransactions retrieves journal entries matching the filter, oldest
// first.
func (r *LedgerRepository) ListTransactions(filter services.TransactionFilter) ([]*models.Transaction, error) {
	query := `
		SELECT id, kind, amount, category, payment_method, flow_type, description, event_id, status, occurred_at
		FROM transactions
		WHERE 1=1`
	var args []interface{}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND occurred_at <= $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	query += " ORDER BY occurred_at, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		txn := &models.Transaction{}
		var eventID sql.NullString
		if err := rows.Scan(&txn.ID, &txn.Kind, &txn.Amount, &txn.Category, &txn.PaymentMethod,
			&txn.FlowType, &txn.Description, &eventID, &txn.Status, &txn.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.EventID = eventID.String
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// SumPostingsByAccount replays the journal up to a point in time and
// returns each account's signed sum. Reports derive balances from this,
// never from the live accounts table.
func (r *LedgerRepository) SumPostingsByAccount(until time.Time) (map[string]int64, error) {
	rows, err := r.db.Query(`
		SELECT p.account_id, COALESCE(SUM(p.delta), 0)
		FROM postings p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE t.occurred_at <= $1
		GROUP BY p.account_id`, until)
	if err != nil {
		return nil, fmt.Errorf("failed to sum postings: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]int64)
	for rows.Next() {
		var accountID string
		var sum int64
		if err := rows.Scan(&accountID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan posting sum: %w", err)
		}
		sums[accountID] = sum
	}

	return sums, rows.Err()
}

// nullableString maps empty strings to SQL NULL
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
