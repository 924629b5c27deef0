package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	maxDescription = 200
)

type (
	// Date is a calendar day, serialised as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Month is a "YYYY-MM" key. Lexical order is chronological order.
	Month string

	Expense struct {
		ID          string `json:"id"`
		CategoryID  string `json:"categoryId"`
		SourceID    string `json:"sourceId"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"date"`
	}

	Category struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		Allocation float64   `json:"allocation"`
		Budget     Money     `json:"budget"`
		Spent      Money     `json:"spent"`
		Planned    Money     `json:"planned"`
		Color      string    `json:"color"`
		Icon       string    `json:"icon"`
		Expenses   []Expense `json:"expenses"`
		IsActive   bool      `json:"isActive"`
	}

	Income struct {
		ID          string `json:"id"`
		SourceID    string `json:"sourceId"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"date"`
	}

	// TransactionSource is a funding account. Balance moves with income and
	// transfers only; expenses reference a source for attribution.
	TransactionSource struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Balance Money  `json:"balance"`
	}

	Goal struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
	}

	// MonthlyArchive is a deep snapshot of one month. At most one exists
	// per Month.
	MonthlyArchive struct {
		Month      Month               `json:"month"`
		Income     Money               `json:"income"`
		Categories []Category          `json:"categories"`
		Goals      []Goal              `json:"goals"`
		Sources    []TransactionSource `json:"sources"`
		Incomes    []Income            `json:"incomes,omitempty"`
		ArchivedAt time.Time           `json:"archivedAt"`
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// YearMonth returns the month the date falls in.
func (d Date) YearMonth() Month {
	return Month(d.Format(MonthLayout))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
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

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format(MonthLayout))
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidMonth
	}
	return MonthOf(t), nil
}

func (m Month) Valid() bool {
	_, err := ParseMonth(string(m))
	return err == nil
}

func (m Month) String() string { return string(m) }

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > maxDescription {
		return Invalid("description", "is too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(e.SourceID) == "" {
		return ErrMissingSource
	}
	return e.Date.Validate()
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.Description) == "" {
		return ErrEmptyDescription
	}
	if len(i.Description) > maxDescription {
		return Invalid("description", "is too long (max 200 characters)")
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.SourceID) == "" {
		return ErrMissingSource
	}
	return i.Date.Validate()
}

// Remaining is the unspent part of the budget; negative when overspent.
func (c Category) Remaining() Money {
	return c.Budget.Sub(c.Spent)
}

// Clone deep-copies the category including its expenses.
func (c Category) Clone() Category {
	c.Expenses = append([]Expense(nil), c.Expenses...)
	if c.Expenses == nil {
		c.Expenses = []Expense{}
	}
	return c
}

// Clone deep-copies the archive.
func (a MonthlyArchive) Clone() MonthlyArchive {
	a.Categories = CloneCategories(a.Categories)
	a.Goals = append([]Goal(nil), a.Goals...)
	a.Sources = append([]TransactionSource(nil), a.Sources...)
	if a.Incomes != nil {
		a.Incomes = append([]Income(nil), a.Incomes...)
	}
	return a
}

func CloneCategories(in []Category) []Category {
	if in == nil {
		return nil
	}
	out := make([]Category, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// SameName compares names the way uniqueness is enforced: trimmed and
// case-insensitive.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
