package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in  Money
		out string
	}{
		{NewMoney(10000), "Rp\u00a010.000"},
		{NewMoney(0), "Rp\u00a00"},
		{NewMoney(123456), "Rp\u00a0123.456"},
		{NewMoney(1000000), "Rp\u00a01.000.000"},
		{MoneyFromFloat(999.6), "Rp\u00a01.000"},
		{NewMoney(-2500), "-Rp\u00a02.500"},
	}
	for _, tc := range cases {
		if got := FormatRupiah(tc.in); got != tc.out {
			t.Fatalf("FormatRupiah(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestParseRupiah(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"Rp 10.000", "10000"},
		{"Rp 123.456", "123456"},
		{"10.000", "10000"},
		{"", "0"},
		{"10,50", "10.5"},
		{"abc", "0"},
		{"Rp 1.000.000", "1000000"},
	}
	for _, tc := range cases {
		if got := ParseRupiah(tc.in).String(); got != tc.out {
			t.Fatalf("ParseRupiah(%q) = %s, want %s", tc.in, got, tc.out)
		}
	}
}

func TestMoneyPercentAndClamp(t *testing.T) {
	if got := NewMoney(1000000).Percent(50); got.String() != "500000" {
		t.Fatalf("expected 500000, got %s", got)
	}
	if got := NewMoney(1000).Percent(math.NaN()); !got.IsZero() {
		t.Fatalf("expected zero for NaN percent, got %s", got)
	}
	if got := NewMoney(5).Sub(NewMoney(10)).ClampZero(); !got.IsZero() {
		t.Fatalf("expected clamp to zero, got %s", got)
	}
	if err := NewMoney(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if got := MoneyFromFloat(math.Inf(1)); !got.IsZero() {
		t.Fatalf("expected zero for +Inf, got %s", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
	}{A: MoneyFromFloat(10.5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":10.5}` {
		t.Fatalf("unexpected json %s", b)
	}

	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":200000,"b":"15.25","c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.String() != "200000" || v.B.String() != "15.25" || !v.C.IsZero() {
		t.Fatalf("unexpected values a=%s b=%s c=%s", v.A, v.B, v.C)
	}
	if err := json.Unmarshal([]byte(`{"a":"lots"}`), &v); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}
