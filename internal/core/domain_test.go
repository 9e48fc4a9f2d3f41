package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2026, 3, 1, 2, 0, 0, 0, loc) // still Feb 28 in UTC
	if got := DateOf(ts).String(); got != "2026-03-01" {
		t.Fatalf("DateOf = %s, want 2026-03-01", got)
	}
	if got := NewDate(2026, 3, 1).AddDays(-1).String(); got != "2026-02-28" {
		t.Fatalf("AddDays = %s, want 2026-02-28", got)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2025, 8, 2))
	if err != nil || string(b) != `"2025-08-02"` {
		t.Fatalf("marshal = %s, %v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2025-08-03"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.String() != "2025-08-03" {
		t.Fatalf("unexpected date %s", d)
	}
	if err := json.Unmarshal([]byte(`"03/08/2025"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{
		Amount:      decimal.RequireFromString("6.50"),
		Category:    FoodAndDrinks,
		Description: "coffee",
		Date:        NewDate(2025, 1, 1),
		Type:        Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(n *NewTransaction)
		want error
	}{
		{"zero amount", func(n *NewTransaction) { n.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(n *NewTransaction) { n.Amount = decimal.NewFromInt(-3) }, ErrInvalidAmount},
		{"free text category", func(n *NewTransaction) { n.Category = "Coffee" }, ErrInvalidCategory},
		{"empty category", func(n *NewTransaction) { n.Category = "" }, ErrInvalidCategory},
		{"bad type", func(n *NewTransaction) { n.Type = "transfer" }, ErrInvalidType},
		{"zero date", func(n *NewTransaction) { n.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := good
			tc.mut(&n)
			if err := n.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	created := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	orig := Transaction{
		ID:          "t1",
		Amount:      decimal.NewFromInt(10),
		Category:    Other,
		Description: "x",
		Date:        NewDate(2025, 8, 1),
		Type:        Expense,
		UserID:      "u1",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	amount := decimal.RequireFromString("12.5")
	cat := Transport
	got := Patch{Amount: &amount, Category: &cat}.Apply(orig)

	if !got.Amount.Equal(amount) || got.Category != Transport {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.ID != "t1" || got.UserID != "u1" || !got.CreatedAt.Equal(created) || got.Description != "x" {
		t.Fatalf("patch touched untouched fields: %+v", got)
	}
}

func TestCategoriesClosedSet(t *testing.T) {
	if n := len(Categories()); n != 12 {
		t.Fatalf("expected 12 categories, got %d", n)
	}
	c, err := ParseCategory(" food & drinks ")
	if err != nil || c != FoodAndDrinks {
		t.Fatalf("ParseCategory = %q, %v", c, err)
	}
	if _, err := ParseCategory("Rent"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestSeedTransactions(t *testing.T) {
	seed := SeedTransactions("u1")
	if len(seed) != 7 {
		t.Fatalf("expected 7 seed transactions, got %d", len(seed))
	}
	seen := map[string]bool{}
	for _, tx := range seed {
		if err := tx.Validate(); err != nil {
			t.Fatalf("seed %s invalid: %v", tx.ID, err)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate seed id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
	if seed[1].Description != "Coffee at Starbucks" || !seed[1].Amount.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("unexpected second seed row: %+v", seed[1])
	}
	if seed[6].Category != SideIncome || seed[6].Type != Income {
		t.Fatalf("unexpected last seed row: %+v", seed[6])
	}
}
