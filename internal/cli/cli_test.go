package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"anggaran/internal/config"
	applog "anggaran/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, applog.ComponentCLI)
	if logger.Component() != applog.ComponentCLI {
		t.Errorf("component = %q", logger.Component())
	}
}

func TestOpenBackendMemory(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory"}
	res, err := OpenBackend(context.Background(), applog.New(applog.DefaultConfig()), cfg)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	if res.Store == nil {
		t.Fatal("expected a store")
	}
	if res.Publisher != nil {
		t.Error("no publisher without AMQP_URL")
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}

func TestOpenBackendInvalid(t *testing.T) {
	if _, err := OpenBackend(context.Background(), nil, &config.Config{DataBackend: "nope"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "Month", "Spent")
	tbl.Row("2024-01", 1500)
	tbl.Row("2024-02")
	if err := tbl.Flush(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], "2024-01") || !strings.Contains(lines[2], "1500") {
		t.Errorf("row = %q", lines[2])
	}
}
