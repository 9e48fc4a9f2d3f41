package analytics

import (
	"errors"
	"sort"
	"strings"

	"fintrack/internal/core"
)

// SortOrder names a listing order. The zero value means DateDesc.
type SortOrder string

const (
	DateDesc   SortOrder = "date-desc"
	DateAsc    SortOrder = "date-asc"
	AmountDesc SortOrder = "amount-desc"
	AmountAsc  SortOrder = "amount-asc"
)

var ErrInvalidSort = errors.New("invalid sort order")

// ParseSortOrder accepts the four listing orders, ignoring case. An empty
// string means DateDesc.
func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case "":
		return DateDesc, nil
	case DateDesc, DateAsc, AmountDesc, AmountAsc:
		return o, nil
	}
	return "", ErrInvalidSort
}

// Apply returns a sorted copy of txs. Ties on date fall back to creation
// time and ties on amount to newest first.
func (o SortOrder) Apply(txs []core.Transaction) []core.Transaction {
	out := SortNewestFirst(txs)
	switch o {
	case DateAsc:
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	case AmountDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.GreaterThan(out[j].Amount) })
	case AmountAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.LessThan(out[j].Amount) })
	}
	return out
}

// Filter selects transactions for the listing view. Empty fields match
// everything.
type Filter struct {
	Type     core.TransactionType
	Category core.Category
	// Query is matched case-insensitively against description and category.
	Query string
	Sort  SortOrder
}

// Apply returns the transactions matching f, preserving input order. Sort
// is not applied here; see SortOrder.Apply.
func (f Filter) Apply(txs []core.Transaction) []core.Transaction {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(string(t.Category)), q) {
			continue
		}
		out = append(out, t)
	}
	return out
}
