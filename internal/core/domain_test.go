package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"2024-01-15T23:10:00Z", "2024-01-15", true},
		{"15/01/2024", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && (err != nil || d.String() != tc.out) {
			t.Fatalf("case %d expected %s, got %s (err=%v)", i, tc.out, d, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSONAndMonth(t *testing.T) {
	var e Expense
	if err := json.Unmarshal([]byte(`{"id":"x","date":"2024-02-29"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Date.YearMonth() != "2024-02" {
		t.Fatalf("unexpected month %s", e.Date.YearMonth())
	}
	b, _ := json.Marshal(e.Date)
	if string(b) != `"2024-02-29"` {
		t.Fatalf("unexpected json %s", b)
	}
	if MonthOf(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)) != "2024-12" {
		t.Fatalf("unexpected MonthOf")
	}
	if _, err := ParseMonth("2024-13"); err == nil {
		t.Fatalf("expected invalid month")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		CategoryID:  "cat-1",
		SourceID:    "src-1",
		Description: "ok",
		Amount:      NewMoney(100),
		Date:        NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{CategoryID: "c", SourceID: "s", Description: "", Amount: NewMoney(1), Date: NewDate(2025, 1, 1)},
		{CategoryID: "c", SourceID: "s", Description: "a", Amount: NewMoney(0), Date: NewDate(2025, 1, 1)},
		{CategoryID: "c", SourceID: "", Description: "a", Amount: NewMoney(1), Date: NewDate(2025, 1, 1)},
		{CategoryID: "", SourceID: "s", Description: "a", Amount: NewMoney(1), Date: NewDate(2025, 1, 1)},
		{CategoryID: "c", SourceID: "s", Description: "a", Amount: NewMoney(1)},
	}
	for i, e := range bads {
		err := e.Validate()
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	var nf *NotFoundError
	err := NotFound("expense", "e-1")
	if !errors.Is(err, ErrNotFound) || !errors.As(err, &nf) || nf.ID != "e-1" {
		t.Fatalf("unexpected not found error %v", err)
	}
	err = &InsufficientFundsError{ID: "a", Available: NewMoney(1), Requested: NewMoney(2)}
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds sentinel")
	}
	err = &ImportError{Reason: "bad", Err: errors.New("boom")}
	if !errors.Is(err, ErrImport) {
		t.Fatalf("expected import sentinel")
	}
}

func TestCategoryCloneIsDeep(t *testing.T) {
	c := Category{ID: "c", Expenses: []Expense{{ID: "e1"}}}
	cp := c.Clone()
	cp.Expenses[0].ID = "changed"
	if c.Expenses[0].ID != "e1" {
		t.Fatalf("clone shares expenses backing array")
	}
	empty := Category{}.Clone()
	if empty.Expenses == nil {
		t.Fatalf("expected non-nil expenses slice")
	}
}
