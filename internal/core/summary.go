package core

import "github.com/shopspring/decimal"

// FinancialSummary holds the headline totals for a collection.
type FinancialSummary struct {
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	TotalExpenses   decimal.Decimal `json:"totalExpenses"`
	Savings         decimal.Decimal `json:"savings"`
	MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
}

// CategoryData is one slice of the expense distribution.
type CategoryData struct {
	Name       Category        `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
	Color      string          `json:"color"`
}

// TrendPoint is the income/expense balance of a single calendar day.
type TrendPoint struct {
	Date     Date            `json:"date"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Savings  decimal.Decimal `json:"savings"`
}

// MonthPoint is the income/expense balance of a single calendar month.
// Month is formatted as YYYY-MM.
type MonthPoint struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Savings  decimal.Decimal `json:"savings"`
}

// Dashboard bundles the derived views rendered together.
type Dashboard struct {
	Summary    FinancialSummary `json:"summary"`
	Categories []CategoryData   `json:"categories"`
	Trend      []TrendPoint     `json:"trend"`
	Recent     []Transaction    `json:"recent"`
}
