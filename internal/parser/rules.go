package parser

import (
	"strings"

	"fintrack/internal/core"
)

type rule struct {
	keywords []string
	category core.Category
	kind     core.TransactionType
}

// rules are evaluated in order; the first rule with a keyword contained in
// the lower-cased text wins.
var rules = []rule{
	{[]string{"salary", "paid", "income"}, core.IncomeCategory, core.Income},
	{[]string{"coffee", "starbucks", "restaurant", "food"}, core.FoodAndDrinks, core.Expense},
	{[]string{"gas", "uber", "transport"}, core.Transport, core.Expense},
	{[]string{"grocery", "walmart", "supermarket"}, core.Groceries, core.Expense},
	{[]string{"netflix", "entertainment", "movie"}, core.Entertainment, core.Expense},
}

var fallback = rule{category: core.Other, kind: core.Expense}

func classify(lower string) (rule, bool) {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r, true
			}
		}
	}
	return fallback, false
}
