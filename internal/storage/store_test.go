package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type slotDoc struct {
	Name  string  `json:"name"`
	Items []int   `json:"items"`
	Ratio float64 `json:"ratio"`
}

func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	var missing slotDoc
	found, err := s.Get(ctx, "absent", &missing)
	if err != nil {
		t.Fatalf("Get absent: %v", err)
	}
	if found {
		t.Fatal("Get absent reported found")
	}

	want := slotDoc{Name: "categories", Items: []int{1, 2, 3}, Ratio: 0.5}
	if err := s.Set(ctx, "doc", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got slotDoc
	found, err = s.Get(ctx, "doc", &got)
	if err != nil || !found {
		t.Fatalf("Get doc: found=%v err=%v", found, err)
	}
	if got.Name != want.Name || len(got.Items) != 3 || got.Ratio != want.Ratio {
		t.Errorf("Get doc = %+v, want %+v", got, want)
	}

	if err := s.Set(ctx, "doc", slotDoc{Name: "replaced"}); err != nil {
		t.Fatalf("Set replace: %v", err)
	}
	got = slotDoc{}
	if _, err := s.Get(ctx, "doc", &got); err != nil {
		t.Fatalf("Get replaced: %v", err)
	}
	if got.Name != "replaced" || len(got.Items) != 0 {
		t.Errorf("Get replaced = %+v", got)
	}

	if err := s.Set(ctx, "month", "2024-02"); err != nil {
		t.Fatalf("Set string: %v", err)
	}
	month, err := Load(ctx, s, "month", "")
	if err != nil || month != "2024-02" {
		t.Errorf("Load month = %q, %v", month, err)
	}
	def, err := Load(ctx, s, "nothing", 42)
	if err != nil || def != 42 {
		t.Errorf("Load default = %d, %v", def, err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStoreContract(t, s)

	if len(s.Keys()) != 2 {
		t.Errorf("Keys = %v, want 2 keys", s.Keys())
	}
	s.Close()
	if err := s.Set(context.Background(), "k", 1); err != ErrClosed {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	items := []int{1, 2}
	if err := s.Set(ctx, "items", items); err != nil {
		t.Fatal(err)
	}
	items[0] = 99

	got, err := Load(ctx, s, "items", []int(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 {
		t.Errorf("stored value changed with caller slice: %v", got)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "budget.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	testStoreContract(t, s)

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	month, err := Load(context.Background(), reopened, "month", "")
	if err != nil || month != "2024-02" {
		t.Errorf("reopened month = %q, %v", month, err)
	}
}

func TestFileStoreRefreshSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budget.json")
	reader, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	writer, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := writer.Set(ctx, "month", "2024-03"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if found, _ := reader.Get(ctx, "month", new(string)); found {
		t.Fatal("reader should not see the write before Refresh")
	}
	if err := reader.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	month, err := Load(ctx, reader, "month", "")
	if err != nil || month != "2024-03" {
		t.Errorf("refreshed month = %q, %v", month, err)
	}
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Fatal("expected error for malformed data file")
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	testStoreContract(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen (migrations must be idempotent): %v", err)
	}
	defer reopened.Close()
	month, err := Load(context.Background(), reopened, "month", "")
	if err != nil || month != "2024-02" {
		t.Errorf("reopened month = %q, %v", month, err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer s.Close()
	for _, k := range []string{"doc", "month"} {
		s.db.Exec("DELETE FROM budget_slots WHERE key = ?", k)
	}
	testStoreContract(t, s)
}
