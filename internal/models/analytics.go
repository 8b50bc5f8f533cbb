package models

import "github.com/shopspring/decimal"

// IncomeExpenseStats represents monthly income and expense statistics
// shown on the dashboard
type IncomeExpenseStats struct {
	Month      string          `json:"month"` // YYYY-MM
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	NetBalance decimal.Decimal `json:"net_balance"`
}

// LoanBurden represents loan burden analytics for the consolidation flow
type LoanBurden struct {
	MonthlyPayments decimal.Decimal `json:"monthly_payments"`
	TotalBalance    decimal.Decimal `json:"total_balance"`
	BurdenRatio     float64         `json:"burden_ratio"` // MonthlyPayments / MonthlyIncome
}

// FinancialSnapshot is the per-user input to a balancing run: monthly income,
// fixed expenses and a minimum-living estimate, from the stored profile or
// derived from trailing transaction history.
type FinancialSnapshot struct {
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	FixedExpenses decimal.Decimal `json:"fixed_expenses"`
	MinimumLiving decimal.Decimal `json:"minimum_living"`
}
