package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the date-only representation used for storage, JSON and
// day-level comparisons.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds Transaction.Description in bytes.
const MaxDescriptionLength = 200

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Date is a calendar date without a time component. The embedded time is
	// always midnight UTC.
	Date struct {
		time.Time
	}

	// Transaction is a single recorded income or expense owned by one user.
	// Amount is always positive; the sign comes from Type.
	Transaction struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Category    Category        `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
		UserID      string          `json:"userId"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// NewTransaction carries the caller-supplied fields of a transaction
	// before the store assigns identity and timestamps.
	NewTransaction struct {
		Amount      decimal.Decimal `json:"amount"`
		Category    Category        `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
	}

	// ParsedTransaction is a parser candidate shown to the user for
	// confirmation. It is never stored as is.
	ParsedTransaction struct {
		Amount      decimal.Decimal `json:"amount"`
		Category    Category        `json:"category"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
		Confidence  float64         `json:"confidence"`
	}

	// Patch is a partial update. Nil fields are left untouched.
	Patch struct {
		Amount      *decimal.Decimal `json:"amount,omitempty"`
		Category    *Category        `json:"category,omitempty"`
		Description *string          `json:"description,omitempty"`
		Date        *Date            `json:"date,omitempty"`
		Type        *TransactionType `json:"type,omitempty"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyUser          = errors.New("empty user id")
	ErrEmptyID            = errors.New("empty transaction id")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days away from d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// ValidateAmount enforces the strictly positive magnitude invariant.
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (n NewTransaction) Validate() error {
	if err := ValidateAmount(n.Amount); err != nil {
		return err
	}
	if err := n.Category.Validate(); err != nil {
		return err
	}
	if err := n.Type.Validate(); err != nil {
		return err
	}
	if err := n.Date.Validate(); err != nil {
		return err
	}
	if len(n.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	return NewTransaction{
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
		Type:        t.Type,
	}.Validate()
}

// Apply merges the non-nil fields of p into t. Identity, owner and
// timestamps are not touched; the caller stamps UpdatedAt.
func (p Patch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	return t
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
