package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type seedRow struct {
	amount      string
	category    Category
	description string
	date        Date
	kind        TransactionType
	createdAt   string
}

var seedRows = []seedRow{
	{"3500", IncomeCategory, "Monthly Salary", NewDate(2025, 8, 1), Income, "2025-08-01T09:00:00Z"},
	{"6.50", FoodAndDrinks, "Coffee at Starbucks", NewDate(2025, 8, 2), Expense, "2025-08-02T08:30:00Z"},
	{"12", Transport, "Uber ride", NewDate(2025, 8, 3), Expense, "2025-08-03T14:15:00Z"},
	{"15.99", Entertainment, "Netflix subscription", NewDate(2025, 8, 4), Expense, "2025-08-04T10:00:00Z"},
	{"120", Groceries, "Grocery shopping at Walmart", NewDate(2025, 8, 5), Expense, "2025-08-05T16:45:00Z"},
	{"45", Transport, "Gas at Shell", NewDate(2025, 8, 6), Expense, "2025-08-06T12:30:00Z"},
	{"500", SideIncome, "Freelance payment", NewDate(2025, 8, 7), Income, "2025-08-07T17:00:00Z"},
}

// SeedTransactions returns the demo collection given to a first-time user,
// in display order. Ids are seed_0 through seed_6.
func SeedTransactions(userID string) []Transaction {
	out := make([]Transaction, len(seedRows))
	for i, r := range seedRows {
		ts, _ := time.Parse(time.RFC3339, r.createdAt)
		out[i] = Transaction{
			ID:          fmt.Sprintf("seed_%d", i),
			Amount:      decimal.RequireFromString(r.amount),
			Category:    r.category,
			Description: r.description,
			Date:        r.date,
			Type:        r.kind,
			UserID:      userID,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
	}
	return out
}
