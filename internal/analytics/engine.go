// Package analytics derives the dashboard views from a transaction
// collection: headline totals, the expense distribution by category, the
// trailing seven-day trend and a per-month series.
//
// Every method is a pure function of its inputs. Nothing is cached; callers
// recompute on each read.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TrendDays is the length of the trend window, today inclusive.
const TrendDays = 7

// MonthlyWindow is the default number of months in Monthly, the current
// month inclusive.
const MonthlyWindow = 6

const monthLayout = "2006-01"

// DefaultPalette is cycled through in first-seen category order.
var DefaultPalette = []string{
	"hsl(217, 91%, 60%)",
	"hsl(142, 76%, 36%)",
	"hsl(0, 84%, 60%)",
	"hsl(38, 92%, 50%)",
	"hsl(261, 83%, 58%)",
	"hsl(326, 78%, 68%)",
}

var hundred = decimal.NewFromInt(100)

// Engine computes derived views. The zero value uses DefaultPalette and
// reports monthly figures as all-time totals.
type Engine struct {
	// Palette overrides DefaultPalette when non-empty.
	Palette []string

	// CalendarMonth restricts MonthlyIncome and MonthlyExpenses to the
	// calendar month containing "now" instead of aliasing all-time totals.
	CalendarMonth bool
}

// Summary computes income, expense and savings totals.
func (e Engine) Summary(txs []core.Transaction, now time.Time) core.FinancialSummary {
	income, expenses := decimal.Zero, decimal.Zero
	monthIncome, monthExpenses := decimal.Zero, decimal.Zero
	year, month, _ := now.Date()

	for _, t := range txs {
		inMonth := t.Date.Year() == year && t.Date.Month() == month
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
			if inMonth {
				monthIncome = monthIncome.Add(t.Amount)
			}
		case core.Expense:
			expenses = expenses.Add(t.Amount)
			if inMonth {
				monthExpenses = monthExpenses.Add(t.Amount)
			}
		}
	}

	s := core.FinancialSummary{
		TotalIncome:     income,
		TotalExpenses:   expenses,
		Savings:         income.Sub(expenses),
		MonthlyIncome:   income,
		MonthlyExpenses: expenses,
	}
	if e.CalendarMonth {
		s.MonthlyIncome = monthIncome
		s.MonthlyExpenses = monthExpenses
	}
	return s
}

// Categories groups expenses by category in order of first appearance.
func (e Engine) Categories(txs []core.Transaction) []core.CategoryData {
	var order []core.Category
	sums := make(map[core.Category]decimal.Decimal)
	total := decimal.Zero

	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		if _, ok := sums[t.Category]; !ok {
			order = append(order, t.Category)
			sums[t.Category] = decimal.Zero
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	palette := e.palette()
	out := make([]core.CategoryData, 0, len(order))
	for i, c := range order {
		amount := sums[c]
		pct := 0.0
		if total.IsPositive() {
			pct = amount.Mul(hundred).Div(total).InexactFloat64()
		}
		out = append(out, core.CategoryData{
			Name:       c,
			Amount:     amount,
			Percentage: pct,
			Color:      palette[i%len(palette)],
		})
	}
	return out
}

// Trend returns one point per day for the TrendDays days ending on now's
// calendar date, oldest first. Days without transactions are zero-filled
// and transactions outside the window are ignored.
func (e Engine) Trend(txs []core.Transaction, now time.Time) []core.TrendPoint {
	today := core.DateOf(now)
	points := make([]core.TrendPoint, TrendDays)
	index := make(map[string]int, TrendDays)
	for i := range points {
		d := today.AddDays(i - (TrendDays - 1))
		points[i] = core.TrendPoint{
			Date:     d,
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
			Savings:  decimal.Zero,
		}
		index[d.String()] = i
	}

	for _, t := range txs {
		i, ok := index[t.Date.String()]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			points[i].Income = points[i].Income.Add(t.Amount)
		case core.Expense:
			points[i].Expenses = points[i].Expenses.Add(t.Amount)
		}
	}
	for i := range points {
		points[i].Savings = points[i].Income.Sub(points[i].Expenses)
	}
	return points
}

// Monthly returns one point per calendar month for the months ending with
// now's month, oldest first and zero-filled. A non-positive months means
// MonthlyWindow.
func (e Engine) Monthly(txs []core.Transaction, now time.Time, months int) []core.MonthPoint {
	if months <= 0 {
		months = MonthlyWindow
	}
	year, month, _ := now.Date()
	points := make([]core.MonthPoint, months)
	index := make(map[string]int, months)
	for i := range points {
		key := time.Date(year, month-time.Month(months-1-i), 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
		points[i] = core.MonthPoint{
			Month:    key,
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
			Savings:  decimal.Zero,
		}
		index[key] = i
	}

	for _, t := range txs {
		i, ok := index[t.Date.Format(monthLayout)]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			points[i].Income = points[i].Income.Add(t.Amount)
		case core.Expense:
			points[i].Expenses = points[i].Expenses.Add(t.Amount)
		}
		points[i].Savings = points[i].Savings.Add(t.Signed())
	}
	return points
}

// Recent returns up to n transactions, newest first by date then creation
// time. The input is not modified.
func (e Engine) Recent(txs []core.Transaction, n int) []core.Transaction {
	sorted := SortNewestFirst(txs)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Dashboard computes every view at once.
func (e Engine) Dashboard(txs []core.Transaction, now time.Time, recent int) core.Dashboard {
	return core.Dashboard{
		Summary:    e.Summary(txs, now),
		Categories: e.Categories(txs),
		Trend:      e.Trend(txs, now),
		Recent:     e.Recent(txs, recent),
	}
}

func (e Engine) palette() []string {
	if len(e.Palette) > 0 {
		return e.Palette
	}
	return DefaultPalette
}

// SortNewestFirst returns a copy of txs ordered by date, then creation time,
// most recent first.
func SortNewestFirst(txs []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
