package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxCategoryLength = 100
	MaxCommentLength  = 500

	// DateLayout is the wire and storage format of a Date.
	DateLayout = "2006-01-02"
)

type (
	// Date is a calendar date without time of day. A Date read from storage
	// may not parse; it then keeps the original text and is not Valid.
	Date struct {
		time.Time
		raw   string
		valid bool
	}

	// Expense is one spending record.
	Expense struct {
		ID       string `json:"id"`
		Date     Date   `json:"date"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Comment  string `json:"comment"`
	}

	// Patch carries the fields of a partial update. Nil fields keep the
	// stored value.
	Patch struct {
		Date     *Date
		Category *string
		Amount   *Money
		Comment  *string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrEmptyCategory    = errors.New("empty category")
	ErrCategoryTooLong  = errors.New("category too long (max 100 characters)")
	ErrCommentTooLong   = errors.New("comment too long (max 500 characters)")
	ErrEmptyPatch       = errors.New("no fields to update")
	validationErrorList = []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyCategory,
		ErrCategoryTooLong, ErrCommentTooLong, ErrEmptyPatch,
	}
)

// IsValidation reports whether err is caused by invalid user input.
func IsValidation(err error) bool {
	for _, target := range validationErrorList {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

var dateLayouts = []string{
	DateLayout,
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	time.RFC3339,
}

// ParseDate parses s leniently. It never fails: text that is not a date
// yields an invalid Date remembering s.
func ParseDate(s string) Date {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day())
		}
	}
	return Date{raw: s}
}

// Valid is false for the zero Date and for text that did not parse. The
// zero time, 0001-01-01, is a valid date when it was parsed or built.
func (d Date) Valid() bool {
	return d.valid
}

func (d Date) Validate() error {
	if !d.Valid() {
		return ErrInvalidDate
	}
	return nil
}

// Period returns the year-month of a valid date.
func (d Date) Period() (Period, bool) {
	if !d.Valid() {
		return Period{}, false
	}
	return PeriodOf(d.Time), true
}

// String renders YYYY-MM-DD, or the original text of an invalid date.
func (d Date) String() string {
	if !d.Valid() {
		return d.raw
	}
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = ParseDate(s)
	return nil
}

// NormalizeText trims surrounding whitespace and removes control
// characters except tab, newline and carriage return. Case is preserved.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
}

// Normalize returns a copy with category and comment normalized.
func (e Expense) Normalize() Expense {
	e.Category = NormalizeText(e.Category)
	e.Comment = NormalizeText(e.Comment)
	return e
}

func validateCategory(c string) error {
	if strings.TrimSpace(c) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(c) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	return nil
}

func validateComment(c string) error {
	if utf8.RuneCountInString(c) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

func validateAmount(m Money) error {
	if !m.Valid() {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the constraints applied on create.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateCategory(e.Category); err != nil {
		return err
	}
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	return validateComment(e.Comment)
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Category == nil && p.Amount == nil && p.Comment == nil
}

// Normalize returns a copy with text fields normalized.
func (p Patch) Normalize() Patch {
	if p.Category != nil {
		c := NormalizeText(*p.Category)
		p.Category = &c
	}
	if p.Comment != nil {
		c := NormalizeText(*p.Comment)
		p.Comment = &c
	}
	return p
}

// Validate checks every field the patch sets.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Comment != nil {
		return validateComment(*p.Comment)
	}
	return nil
}

// Apply returns e with the patch fields overlaid. The ID never changes.
func (p Patch) Apply(e Expense) Expense {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Comment != nil {
		e.Comment = *p.Comment
	}
	return e
}
