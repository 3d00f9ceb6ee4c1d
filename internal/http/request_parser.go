// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing request bodies and query
// strings into domain values.

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Body field names, canonical first. The later names are what older
// clients send.
var (
	dateKeys     = []string{"date", "Date"}
	categoryKeys = []string{"category", "Category", "type", "Type"}
	amountKeys   = []string{"amount", "Amount", "Amount (₹)"}
	commentKeys  = []string{"comment", "Comment"}
)

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = fmt.Errorf("request body larger than %d bytes", maxBodyBytes)
		}
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.Contains(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		if p.jsonData == nil {
			p.jsonData = map[string]any{}
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Lookup returns the value of the first key present in the body.
func (p *RequestBodyParser) Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if p.jsonData != nil {
			if val, ok := p.jsonData[key]; ok && val != nil {
				return stringValue(val), true
			}
			continue
		}
		if p.formData != nil {
			if vals, ok := p.formData[key]; ok && len(vals) > 0 {
				return vals[0], true
			}
		}
	}
	return "", false
}

// Get returns the first present value of keys, or "".
func (p *RequestBodyParser) Get(keys ...string) string {
	v, _ := p.Lookup(keys...)
	return v
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// ParseExpenseDraft builds a new expense from the body. Missing fields are
// left empty so validation reports them.
func ParseExpenseDraft(p *RequestBodyParser) (core.Expense, error) {
	amount, err := core.ParseAmount(p.Get(amountKeys...))
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Date:     core.ParseDate(strings.TrimSpace(p.Get(dateKeys...))),
		Category: p.Get(categoryKeys...),
		Amount:   amount,
		Comment:  p.Get(commentKeys...),
	}, nil
}

// ParseExpensePatch builds a partial update from the body. Empty strings
// count as absent, except for comment which may be cleared.
func ParseExpensePatch(p *RequestBodyParser) (core.Patch, error) {
	var patch core.Patch

	if v, ok := p.Lookup(dateKeys...); ok && strings.TrimSpace(v) != "" {
		d := core.ParseDate(strings.TrimSpace(v))
		patch.Date = &d
	}
	if v, ok := p.Lookup(categoryKeys...); ok && strings.TrimSpace(v) != "" {
		patch.Category = &v
	}
	if v, ok := p.Lookup(amountKeys...); ok && strings.TrimSpace(v) != "" {
		amount, err := core.ParseAmount(v)
		if err != nil {
			return core.Patch{}, err
		}
		patch.Amount = &amount
	}
	if v, ok := p.Lookup(commentKeys...); ok {
		patch.Comment = &v
	}

	return patch, nil
}

// ParseReportPeriods picks the months for the monthly report. from and to
// (YYYY-MM) select an inclusive range; a missing end copies the other one.
// Otherwise year selects its twelve months. Anything malformed, or a range
// longer than aggregate.MaxRangeMonths, falls back to the current year.
func ParseReportPeriods(query url.Values, now time.Time) []core.Period {
	current := aggregate.YearPeriods(now.Year())

	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))
	if from != "" || to != "" {
		if from == "" {
			from = to
		}
		if to == "" {
			to = from
		}
		first, err1 := core.ParsePeriod(from)
		last, err2 := core.ParsePeriod(to)
		if err1 != nil || err2 != nil || !aggregate.RangeWithinLimit(first, last) {
			return current
		}
		return aggregate.PeriodRange(first, last)
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 && y <= 9999 {
			return aggregate.YearPeriods(y)
		}
	}
	return current
}

// ParseCategories reads repeated category parameters. Values are matched
// exactly, so they are not trimmed; only empty values are dropped. nil
// means no filter.
func ParseCategories(query url.Values) []string {
	var out []string
	for _, c := range query["category"] {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
