// Package parser turns a free-text transaction description into a
// structured candidate using ordered keyword rules.
//
// Parse is pure and deterministic: it never fails and never performs I/O.
// When nothing in the text is recognised it still returns a candidate
// (amount 0, category Other, type expense) tagged MatchNone so callers can
// tell the fallback apart from a genuine "Other" expense.
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// Confidence is reported for every parse.
	Confidence = 0.85

	// ReviewThreshold is the confidence below which a candidate should be
	// confirmed manually before it is stored.
	ReviewThreshold = 0.7
)

// MatchKind tells how much of the text the rules recognised.
type MatchKind string

const (
	MatchFull    MatchKind = "full"    // amount and a keyword rule
	MatchPartial MatchKind = "partial" // one of the two
	MatchNone    MatchKind = "none"    // fallback values only
)

// Result is the tagged outcome of Parse.
type Result struct {
	Transaction core.ParsedTransaction `json:"transaction"`
	Match       MatchKind              `json:"match"`
}

// NeedsReview reports whether the candidate should be flagged for manual
// review before being committed.
func (r Result) NeedsReview() bool {
	return r.Transaction.Confidence < ReviewThreshold || r.Match == MatchNone
}

var (
	amountRegex = regexp.MustCompile(`\$?(\d+(?:\.\d{2})?)`)
	stripRegex  = regexp.MustCompile(`[$\d.]+`)
)

// Parse extracts a candidate transaction from text.
func Parse(text string) Result {
	amount, amountFound := parseAmount(text)
	r, ruleFound := classify(strings.ToLower(text))

	match := MatchNone
	switch {
	case amountFound && ruleFound:
		match = MatchFull
	case amountFound || ruleFound:
		match = MatchPartial
	}

	return Result{
		Transaction: core.ParsedTransaction{
			Amount:      amount,
			Category:    r.category,
			Description: describe(text),
			Type:        r.kind,
			Confidence:  Confidence,
		},
		Match: match,
	}
}

// parseAmount returns the first currency-like number in text.
func parseAmount(text string) (decimal.Decimal, bool) {
	m := amountRegex.FindStringSubmatch(text)
	if len(m) < 2 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// describe removes currency symbols, digits and decimal points.
func describe(text string) string {
	return strings.TrimSpace(stripRegex.ReplaceAllString(text, ""))
}
