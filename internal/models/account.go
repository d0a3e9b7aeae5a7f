package models

import "errors"

// AccountType represents the type of a ledger account
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Account represents a named ledger account. The balance always equals the
// sum of all posted deltas since creation.
type Account struct {
	ID      string      `json:"id" db:"id"`
	Name    string      `json:"name" db:"name"`
	Type    AccountType `json:"type" db:"type"`
	Balance int64       `json:"balance" db:"balance"` // in cents
}

// Validate validates the account data
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("account id is required")
	}

	if a.Name == "" {
		return errors.New("account name is required")
	}

	switch a.Type {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return nil
	default:
		return errors.New("invalid account type")
	}
}

// DefaultChartOfAccounts returns the fixed chart seeded at first use
func DefaultChartOfAccounts() []Account {
	return []Account{
		{ID: "cash", Name: "Cash on Hand", Type: AccountAsset},
		{ID: "bank", Name: "Bank Account", Type: AccountAsset},
		{ID: "mpesa", Name: "M-Pesa Wallet", Type: AccountAsset},
		{ID: "vendor_payable", Name: "Vendor Payables", Type: AccountLiability},
		{ID: "owner_equity", Name: "Owner Equity", Type: AccountEquity},
		{ID: "ticket_sales_revenue", Name: "Ticket Sales", Type: AccountRevenue},
		{ID: "vendor_revenue", Name: "Vendor Bookings", Type: AccountRevenue},
		{ID: "sponsorship_revenue", Name: "Sponsorships", Type: AccountRevenue},
		{ID: "venue_expense", Name: "Venue Costs", Type: AccountExpense},
		{ID: "artist_expense", Name: "Artist Fees", Type: AccountExpense},
		{ID: "marketing_expense", Name: "Marketing Spend", Type: AccountExpense},
	}
}
