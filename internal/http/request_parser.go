package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/analytics"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

const maxMonths = 24

var errInvalidRequest = errors.New("invalid request")

// amountField accepts an amount as a JSON number or as a string such as
// "$12.50" or "12,50".
type amountField decimal.Decimal

func (a *amountField) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return core.ErrInvalidAmount
		}
		s = str
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	*a = amountField(d)
	return nil
}

type parseRequest struct {
	Text string `json:"text"`
}

type createRequest struct {
	Amount      *amountField `json:"amount"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Date        string       `json:"date"`
	Type        string       `json:"type"`
}

type patchRequest struct {
	Amount      *amountField `json:"amount"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Date        *string      `json:"date"`
	Type        *string      `json:"type"`
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderUserID))
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields
// and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must hold a single JSON object", errInvalidRequest)
	}
	return nil
}

// toNewTransaction resolves the loosely typed request fields. An empty
// date means today.
func (c createRequest) toNewTransaction(today core.Date) (core.NewTransaction, error) {
	if c.Amount == nil {
		return core.NewTransaction{}, core.ErrInvalidAmount
	}
	category, err := core.ParseCategory(c.Category)
	if err != nil {
		return core.NewTransaction{}, err
	}
	txType, err := parseType(c.Type)
	if err != nil {
		return core.NewTransaction{}, err
	}
	date := today
	if strings.TrimSpace(c.Date) != "" {
		if date, err = core.ParseDate(c.Date); err != nil {
			return core.NewTransaction{}, err
		}
	}
	return core.NewTransaction{
		Amount:      decimal.Decimal(*c.Amount),
		Category:    category,
		Description: c.Description,
		Date:        date,
		Type:        txType,
	}, nil
}

func (p patchRequest) toPatch() (core.Patch, error) {
	var patch core.Patch
	if p.Amount != nil {
		amount := decimal.Decimal(*p.Amount)
		patch.Amount = &amount
	}
	if p.Category != nil {
		category, err := core.ParseCategory(*p.Category)
		if err != nil {
			return core.Patch{}, err
		}
		patch.Category = &category
	}
	if p.Description != nil {
		desc := *p.Description
		patch.Description = &desc
	}
	if p.Date != nil {
		date, err := core.ParseDate(*p.Date)
		if err != nil {
			return core.Patch{}, err
		}
		patch.Date = &date
	}
	if p.Type != nil {
		txType, err := parseType(*p.Type)
		if err != nil {
			return core.Patch{}, err
		}
		patch.Type = &txType
	}
	return patch, nil
}

// parseFilter reads the type, category, q and sort list parameters. Empty
// values do not filter; an empty sort means newest first.
func parseFilter(query url.Values) (analytics.Filter, error) {
	var f analytics.Filter
	if v := strings.TrimSpace(query.Get("type")); v != "" {
		txType, err := parseType(v)
		if err != nil {
			return analytics.Filter{}, err
		}
		f.Type = txType
	}
	if v := strings.TrimSpace(query.Get("category")); v != "" {
		category, err := core.ParseCategory(v)
		if err != nil {
			return analytics.Filter{}, err
		}
		f.Category = category
	}
	f.Query = strings.TrimSpace(query.Get("q"))
	order, err := analytics.ParseSortOrder(query.Get("sort"))
	if err != nil {
		return analytics.Filter{}, err
	}
	f.Sort = order
	return f, nil
}

// parseMonths reads the optional months window of the monthly series.
func parseMonths(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("months"))
	if v == "" {
		return analytics.MonthlyWindow, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxMonths {
		return 0, fmt.Errorf("%w: months must be between 1 and %d", errInvalidRequest, maxMonths)
	}
	return n, nil
}

func parseType(s string) (core.TransactionType, error) {
	t := core.TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}
