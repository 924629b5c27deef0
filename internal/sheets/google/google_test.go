package google

import (
	"context"
	"errors"
	"strings"
	"testing"

	"anggaran/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "", "Archive")
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected credentials error, got: %v", err)
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", t.TempDir()+"/missing.json")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got: %v", err)
	}
}

func TestClient_UpsertArchiveValidation(t *testing.T) {
	c := &Client{spreadsheetID: "test", archiveSheet: "Archive"}

	err := c.UpsertArchive(context.Background(), core.MonthlyArchive{Month: "2024-13"})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error, got: %v", err)
	}

	err = c.UpsertArchive(context.Background(), core.MonthlyArchive{Month: "2024-05"})
	if err == nil || err.Error() != "sheets service not initialized" {
		t.Errorf("expected uninitialized service error, got: %v", err)
	}
}

func TestRowRange(t *testing.T) {
	tests := []struct {
		first, n int
		want     string
	}{
		{1, 1, "Archive!A1:F1"},
		{5, 3, "Archive!A5:F7"},
		{10, 15, "Archive!A10:F24"},
	}
	for _, tt := range tests {
		if got := rowRange("Archive", tt.first, tt.n); got != tt.want {
			t.Errorf("rowRange(%d, %d) = %q, want %q", tt.first, tt.n, got, tt.want)
		}
	}
}

func TestFirstColumn(t *testing.T) {
	got := firstColumn([][]interface{}{{"Month"}, {}, {"2024-01", "Food"}})
	want := []string{"Month", "", "2024-01"}
	if len(got) != len(want) {
		t.Fatalf("firstColumn() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("firstColumn()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
