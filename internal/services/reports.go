package services

import (
	"fmt"
	"time"

	"ticketcore/internal/models"
)

// Report types accepted by GenerateReport
const (
	ReportCashflow     = "cashflow"
	ReportIncome       = "income"
	ReportBalanceSheet = "balance_sheet"
	ReportSales        = "sales"
)

// CashflowActivity aggregates one flow-type bucket of a cash-flow report
type CashflowActivity struct {
	Inflows  int64 `json:"inflows"`
	Outflows int64 `json:"outflows"`
	Net      int64 `json:"net"`
}

// CashflowReport groups cash movement by operating, investing and
// financing activity over a date range.
type CashflowReport struct {
	From      time.Time        `json:"from"`
	To        time.Time        `json:"to"`
	Operating CashflowActivity `json:"operating"`
	Investing CashflowActivity `json:"investing"`
	Financing CashflowActivity `json:"financing"`
	Net       int64            `json:"net"`
}

// IncomeReport summarizes revenue and costs over a date range
type IncomeReport struct {
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	Revenue           int64            `json:"revenue"`
	Refunds           int64            `json:"refunds"`
	Costs             int64            `json:"costs"`
	NetIncome         int64            `json:"net_income"`
	RevenueByCategory map[string]int64 `json:"revenue_by_category"`
}

// BalanceSheetEntry is one account's replayed balance as of a date
type BalanceSheetEntry struct {
	AccountID string             `json:"account_id"`
	Name      string             `json:"name"`
	Type      models.AccountType `json:"type"`
	Balance   int64              `json:"balance"`
}

// BalanceSheetReport is a point-in-time statement. Balances are replayed
// from the journal up to the as-of date, never read from live accounts, so
// historical reports stay correct as new transactions arrive.
type BalanceSheetReport struct {
	AsOf                 time.Time                      `json:"as_of"`
	Accounts             []BalanceSheetEntry            `json:"accounts"`
	TotalsByType         map[models.AccountType]int64   `json:"totals_by_type"`
	Assets               int64                          `json:"assets"`
	LiabilitiesAndEquity int64                          `json:"liabilities_and_equity"`
}

// SalesReport aggregates ticket revenue by event over a date range
type SalesReport struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	TotalSales   int64            `json:"total_sales"`
	Transactions int              `json:"transactions"`
	ByEvent      map[string]int64 `json:"by_event"`
}

// GenerateReport builds the named report for the date range. Reports never
// mutate ledger state. For balance_sheet the range end is the as-of date.
func (s *LedgerService) GenerateReport(reportType string, from, to time.Time) (interface{}, error) {
	switch reportType {
	case ReportCashflow:
		return s.cashflowReport(from, to)
	case ReportIncome:
		return s.incomeReport(from, to)
	case ReportBalanceSheet:
		return s.balanceSheetReport(to)
	case ReportSales:
		return s.salesReport(from, to)
	default:
		return nil, fmt.Errorf("%w: unknown report type %q", models.ErrInvalidInput, reportType)
	}
}

// cashflowReport buckets signed cash movement by flow type
func (s *LedgerService) cashflowReport(from, to time.Time) (*CashflowReport, error) {
	transactions, err := s.repo.ListTransactions(TransactionFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	report := &CashflowReport{From: from, To: to}
	for _, txn := range transactions {
		activity := report.activityFor(txn.FlowType)
		if activity == nil {
			continue
		}

		if txn.IsInflow() {
			activity.Inflows += txn.Amount
		} else {
			activity.Outflows += txn.Amount
		}
		activity.Net = activity.Inflows - activity.Outflows
	}

	report.Net = report.Operating.Net + report.Investing.Net + report.Financing.Net
	return report, nil
}

// activityFor maps a flow type onto its report bucket
func (r *CashflowReport) activityFor(flow models.FlowType) *CashflowActivity {
	switch flow {
	case models.FlowOperating:
		return &r.Operating
	case models.FlowInvesting:
		return &r.Investing
	case models.FlowFinancing:
		return &r.Financing
	}
	return nil
}

// incomeReport computes the income statement for a range
func (s *LedgerService) incomeReport(from, to time.Time) (*IncomeReport, error) {
	transactions, err := s.repo.ListTransactions(TransactionFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	report := &IncomeReport{
		From:              from,
		To:                to,
		RevenueByCategory: make(map[string]int64),
	}

	for _, txn := range transactions {
		switch txn.Kind {
		case models.TransactionRevenue:
			report.Revenue += txn.Amount
			report.RevenueByCategory[txn.Category] += txn.Amount
		case models.TransactionRefund:
			report.Refunds += txn.Amount
			report.RevenueByCategory[txn.Category] -= txn.Amount
		case models.TransactionCost:
			report.Costs += txn.Amount
		}
	}

	report.NetIncome = report.Revenue - report.Refunds - report.Costs
	return report, nil
}

// balanceSheetReport replays the journal up to asOf
func (s *LedgerService) balanceSheetReport(asOf time.Time) (*BalanceSheetReport, error) {
	sums, err := s.repo.SumPostingsByAccount(asOf)
	if err != nil {
		return nil, err
	}

	accounts, err := s.repo.ListAccounts()
	if err != nil {
		return nil, err
	}

	report := &BalanceSheetReport{
		AsOf:         asOf,
		TotalsByType: make(map[models.AccountType]int64),
	}

	for _, account := range accounts {
		balance := sums[account.ID]
		report.Accounts = append(report.Accounts, BalanceSheetEntry{
			AccountID: account.ID,
			Name:      account.Name,
			Type:      account.Type,
			Balance:   balance,
		})
		report.TotalsByType[account.Type] += balance
	}

	report.Assets = report.TotalsByType[models.AccountAsset]
	report.LiabilitiesAndEquity = report.TotalsByType[models.AccountLiability] +
		report.TotalsByType[models.AccountEquity]

	return report, nil
}

// salesReport aggregates ticket revenue by event
func (s *LedgerService) salesReport(from, to time.Time) (*SalesReport, error) {
	transactions, err := s.repo.ListTransactions(TransactionFilter{From: from, To: to, Kind: models.TransactionRevenue})
	if err != nil {
		return nil, err
	}

	report := &SalesReport{
		From:    from,
		To:      to,
		ByEvent: make(map[string]int64),
	}

	for _, txn := range transactions {
		if txn.Category != "ticket_sales_revenue" {
			continue
		}
		report.TotalSales += txn.Amount
		report.Transactions++
		if txn.EventID != "" {
			report.ByEvent[txn.EventID] += txn.Amount
		}
	}

	return report, nil
}
