package core

import "strings"

// Category is a label from the closed category set.
type Category string

const (
	FoodAndDrinks     Category = "Food & Drinks"
	Shopping          Category = "Shopping"
	Transport         Category = "Transport"
	Entertainment     Category = "Entertainment"
	Groceries         Category = "Groceries"
	BillsAndUtilities Category = "Bills & Utilities"
	Healthcare        Category = "Healthcare"
	Education         Category = "Education"
	Travel            Category = "Travel"
	IncomeCategory    Category = "Income"
	SideIncome        Category = "Side Income"
	Other             Category = "Other"
)

var categories = []Category{
	FoodAndDrinks,
	Shopping,
	Transport,
	Entertainment,
	Groceries,
	BillsAndUtilities,
	Healthcare,
	Education,
	Travel,
	IncomeCategory,
	SideIncome,
	Other,
}

// Categories returns the closed category set in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory matches s against the closed set, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) Validate() error {
	for _, known := range categories {
		if c == known {
			return nil
		}
	}
	return ErrInvalidCategory
}
