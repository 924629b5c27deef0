package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentBudget, Output: &buf})

	fields := NewFields().WithOperation(OpCreate).WithExpense("e1", "c1", "", "1000")
	l.Info("Expense added", fields.ToSlice()...)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentBudget {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentBudget)
	}
	if rec[FieldExpenseID] != "e1" || rec[FieldCategoryID] != "c1" {
		t.Errorf("missing expense fields: %v", rec)
	}
	if _, ok := rec[FieldSourceID]; ok {
		t.Error("empty source id should be omitted")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: ParseLevel("warn"), Output: &buf})
	l.Info("hidden")
	l.Warn("shown", FieldError, errors.New("boom").Error())

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=app") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	l := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	ctx := IntoContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("FromContext did not return stored logger")
	}
	if got := FromContext(context.Background()); got.Component() != ComponentApp {
		t.Errorf("fallback component = %q", got.Component())
	}
}
