package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketcore/internal/models"
)

func newTestLedger(t *testing.T) (*LedgerService, *MockLedgerRepository) {
	t.Helper()
	repo := NewMockLedgerRepository()
	svc := NewLedgerService(repo)
	require.NoError(t, svc.EnsureChart())
	return svc, repo
}

func mustBalance(t *testing.T, repo *MockLedgerRepository, accountID string) int64 {
	t.Helper()
	account, err := repo.GetAccount(accountID)
	require.NoError(t, err)
	return account.Balance
}

func TestPostRevenueLegs(t *testing.T) {
	svc, repo := newTestLedger(t)

	txn, err := svc.PostTransaction(&TransactionInput{
		Kind:          models.TransactionRevenue,
		Amount:        50000,
		Category:      "ticket_sales_revenue",
		PaymentMethod: "bank",
		FlowType:      models.FlowOperating,
		Description:   "ticket sale",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, txn.Status)

	assert.Equal(t, int64(50000), mustBalance(t, repo, "bank"))
	assert.Equal(t, int64(50000), mustBalance(t, repo, "ticket_sales_revenue"))

	legs, err := repo.ListPostingsByTransaction(txn.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 2)
}

func TestPostCostLegs(t *testing.T) {
	svc, repo := newTestLedger(t)

	_, err := svc.PostTransaction(&TransactionInput{
		Kind:          models.TransactionCost,
		Amount:        30000,
		Category:      "venue_expense",
		PaymentMethod: "cash",
		FlowType:      models.FlowOperating,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(-30000), mustBalance(t, repo, "cash"))
	assert.Equal(t, int64(-30000), mustBalance(t, repo, "venue_expense"))
}

func TestPostPayoutWithEquityLeg(t *testing.T) {
	svc, repo := newTestLedger(t)

	txn, err := svc.PostTransaction(&TransactionInput{
		Kind:          models.TransactionPayout,
		Amount:        100000,
		Category:      "owner_equity",
		PaymentMethod: "bank",
		FlowType:      models.FlowFinancing,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(-100000), mustBalance(t, repo, "bank"))
	assert.Equal(t, int64(-100000), mustBalance(t, repo, "owner_equity"))

	legs, err := repo.ListPostingsByTransaction(txn.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 2)
}

func TestPostPayoutWithoutCategory(t *testing.T) {
	svc, repo := newTestLedger(t)

	txn, err := svc.PostTransaction(&TransactionInput{
		Kind:          models.TransactionPayout,
		Amount:        100000,
		PaymentMethod: "bank",
		FlowType:      models.FlowFinancing,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(-100000), mustBalance(t, repo, "bank"))

	legs, err := repo.ListPostingsByTransaction(txn.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 1)
}

func TestPostTransactionValidation(t *testing.T) {
	svc, _ := newTestLedger(t)

	cases := []struct {
		name    string
		input   *TransactionInput
		wantErr error
	}{
		{
			"zero amount",
			&TransactionInput{Kind: models.TransactionRevenue, Amount: 0,
				Category: "ticket_sales_revenue", PaymentMethod: "bank", FlowType: models.FlowOperating},
			models.ErrInvalidAmount,
		},
		{
			"negative amount",
			&TransactionInput{Kind: models.TransactionRevenue, Amount: -100,
				Category: "ticket_sales_revenue", PaymentMethod: "bank", FlowType: models.FlowOperating},
			models.ErrInvalidAmount,
		},
		{
			"unknown payment method",
			&TransactionInput{Kind: models.TransactionRevenue, Amount: 100,
				Category: "ticket_sales_revenue", PaymentMethod: "paypal", FlowType: models.FlowOperating},
			models.ErrUnknownAccount,
		},
		{
			"unknown category",
			&TransactionInput{Kind: models.TransactionRevenue, Amount: 100,
				Category: "merch_revenue", PaymentMethod: "bank", FlowType: models.FlowOperating},
			models.ErrUnknownAccount,
		},
		{
			"category of wrong type",
			&TransactionInput{Kind: models.TransactionRevenue, Amount: 100,
				Category: "venue_expense", PaymentMethod: "bank", FlowType: models.FlowOperating},
			models.ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PostTransaction(tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestFailedPostingLeavesNoTrace(t *testing.T) {
	svc, repo := newTestLedger(t)

	_, err := svc.PostTransaction(&TransactionInput{
		Kind:          models.TransactionRevenue,
		Amount:        100,
		Category:      "merch_revenue",
		PaymentMethod: "bank",
		FlowType:      models.FlowOperating,
	})
	require.Error(t, err)

	transactions, err := repo.ListTransactions(TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, transactions)
	assert.Equal(t, int64(0), mustBalance(t, repo, "bank"))
}

func TestReverseTransaction(t *testing.T) {
	svc, repo := newTestLedger(t)

	original, err := svc.PostTransaction(&TransactionInput{
		Kind:          models.TransactionRevenue,
		Amount:        50000,
		Category:      "ticket_sales_revenue",
		PaymentMethod: "bank",
		FlowType:      models.FlowOperating,
	})
	require.NoError(t, err)

	reversal, err := svc.ReverseTransaction(original.ID, "customer refund")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionRefund, reversal.Kind)
	assert.Equal(t, original.Amount, reversal.Amount)

	// Sale and reversal net to zero on both accounts, and both stay in the
	// journal.
	assert.Equal(t, int64(0), mustBalance(t, repo, "bank"))
	assert.Equal(t, int64(0), mustBalance(t, repo, "ticket_sales_revenue"))

	transactions, err := repo.ListTransactions(TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
}

func TestReverseNonRevenueRejected(t *testing.T) {
	svc, _ := newTestLedger(t)

	cost, err := svc.PostTransaction(&TransactionInput{
		Kind:          models.TransactionCost,
		Amount:        30000,
		Category:      "venue_expense",
		PaymentMethod: "cash",
		FlowType:      models.FlowOperating,
	})
	require.NoError(t, err)

	_, err = svc.ReverseTransaction(cost.ID, "oops")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestIncomeReportSubtractsRefunds(t *testing.T) {
	svc, _ := newTestLedger(t)

	sale, err := svc.PostTransaction(&TransactionInput{
		Kind: models.TransactionRevenue, Amount: 80000,
		Category: "ticket_sales_revenue", PaymentMethod: "bank", FlowType: models.FlowOperating,
	})
	require.NoError(t, err)

	_, err = svc.PostTransaction(&TransactionInput{
		Kind: models.TransactionCost, Amount: 20000,
		Category: "artist_expense", PaymentMethod: "bank", FlowType: models.FlowOperating,
	})
	require.NoError(t, err)

	_, err = svc.ReverseTransaction(sale.ID, "partial cancellation refund test")
	require.NoError(t, err)

	report, err := svc.GenerateReport(ReportIncome, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	income := report.(*IncomeReport)
	assert.Equal(t, int64(80000), income.Revenue)
	assert.Equal(t, int64(80000), income.Refunds)
	assert.Equal(t, int64(20000), income.Costs)
	assert.Equal(t, int64(-20000), income.NetIncome)
	assert.Equal(t, int64(0), income.RevenueByCategory["ticket_sales_revenue"])
}

func TestCashflowReportBuckets(t *testing.T) {
	svc, _ := newTestLedger(t)

	_, err := svc.PostTransaction(&TransactionInput{
		Kind: models.TransactionRevenue, Amount: 100000,
		Category: "ticket_sales_revenue", PaymentMethod: "bank", FlowType: models.FlowOperating,
	})
	require.NoError(t, err)

	_, err = svc.PostTransaction(&TransactionInput{
		Kind: models.TransactionCost, Amount: 40000,
		Category: "marketing_expense", PaymentMethod: "bank", FlowType: models.FlowOperating,
	})
	require.NoError(t, err)

	_, err = svc.PostTransaction(&TransactionInput{
		Kind: models.TransactionPayout, Amount: 25000,
		Category: "owner_equity", PaymentMethod: "bank", FlowType: models.FlowFinancing,
	})
	require.NoError(t, err)

	report, err := svc.GenerateReport(ReportCashflow, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	cashflow := report.(*CashflowReport)
	assert.Equal(t, int64(100000), cashflow.Operating.Inflows)
	assert.Equal(t, int64(40000), cashflow.Operating.Outflows)
	assert.Equal(t, int64(60000), cashflow.Operating.Net)
	assert.Equal(t, int64(25000), cashflow.Financing.Outflows)
	assert.Equal(t, int64(35000), cashflow.Net)
}

func TestBalanceSheetReplaysPointInTime(t *testing.T) {
	svc, repo := newTestLedger(t)

	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := svc.PostTransaction(&TransactionInput{
		Kind: models.TransactionRevenue, Amount: 100000,
		Category: "ticket_sales_revenue", PaymentMethod: "bank",
		FlowType: models.FlowOperating, Timestamp: t1,
	})
	require.NoError(t, err)

	_, err = svc.PostTransaction(&TransactionInput{
		Kind: models.TransactionCost, Amount: 30000,
		Category: "venue_expense", PaymentMethod: "bank",
		FlowType: models.FlowOperating, Timestamp: t2,
	})
	require.NoError(t, err)

	// As of a date between the two postings, only the first is visible.
	report, err := svc.GenerateReport(ReportBalanceSheet, time.Time{}, t1.AddDate(0, 1, 0))
	require.NoError(t, err)

	mid := report.(*BalanceSheetReport)
	assert.Equal(t, int64(100000), mid.TotalsByType[models.AccountAsset])

	// As of now, the replayed balances match the live accounts.
	report, err = svc.GenerateReport(ReportBalanceSheet, time.Time{}, time.Now())
	require.NoError(t, err)

	latest := report.(*BalanceSheetReport)
	for _, entry := range latest.Accounts {
		assert.Equal(t, mustBalance(t, repo, entry.AccountID), entry.Balance,
			"account %s", entry.AccountID)
	}
}

func TestSalesReportByEvent(t *testing.T) {
	svc, _ := newTestLedger(t)

	for _, sale := range []struct {
		amount  int64
		eventID string
	}{
		{50000, "ev1"},
		{30000, "ev1"},
		{20000, "ev2"},
	} {
		_, err := svc.PostTransaction(&TransactionInput{
			Kind: models.TransactionRevenue, Amount: sale.amount,
			Category: "ticket_sales_revenue", PaymentMethod: "bank",
			FlowType: models.FlowOperating, EventID: sale.eventID,
		})
		require.NoError(t, err)
	}

	// Non-ticket revenue is excluded from the sales report.
	_, err := svc.PostTransaction(&TransactionInput{
		Kind: models.TransactionRevenue, Amount: 99000,
		Category: "sponsorship_revenue", PaymentMethod: "bank", FlowType: models.FlowOperating,
	})
	require.NoError(t, err)

	report, err := svc.GenerateReport(ReportSales, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	sales := report.(*SalesReport)
	assert.Equal(t, int64(100000), sales.TotalSales)
	assert.Equal(t, 3, sales.Transactions)
	assert.Equal(t, int64(80000), sales.ByEvent["ev1"])
	assert.Equal(t, int64(20000), sales.ByEvent["ev2"])
}

func TestGenerateReportUnknownType(t *testing.T) {
	svc, _ := newTestLedger(t)

	_, err := svc.GenerateReport("quarterly", time.Time{}, time.Now())
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
