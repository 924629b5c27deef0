package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anggaran/internal/core"
)

// run executes one anggaranctl invocation against a file store.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_FILE", filepath.Join(dir, "anggaran.json"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("TIP_SERVICE_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func TestImportThenExport(t *testing.T) {
	setupEnv(t)

	out, err := run(t, `{"income": 5000000}`, "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Import complete")

	out, err = run(t, "", "export")
	require.NoError(t, err)
	var snap struct {
		Income     core.Money      `json:"income"`
		Categories []core.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.True(t, snap.Income.Equal(core.NewMoney(5000000)))
	assert.NotEmpty(t, snap.Categories)
}

func TestExportToFile(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "out.json")

	_, err := run(t, "", "export", "--out", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"categories"`)
}

func TestImportRejected(t *testing.T) {
	setupEnv(t)
	_, err := run(t, `{"categories": 42}`, "import", "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrImport)
}

func TestArchiveNowAndMonths(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "rollover", "archive-now")
	require.NoError(t, err)
	assert.Contains(t, out, "Archived")

	out, err = run(t, "", "months")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	out, err = run(t, "", "sync-archives")
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 1 archive(s)")
}

func TestDashboardAndReport(t *testing.T) {
	setupEnv(t)
	_, err := run(t, `{"income": 10000000}`, "import", "-")
	require.NoError(t, err)

	out, err := run(t, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Transportation")
	assert.Contains(t, out, "Rp\u00a010.000.000")

	_, err = run(t, "", "report", "--start", "2024-13")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)

	out, err = run(t, "", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Report")
}

func TestTipFallsBackWithoutService(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "", "tip", "cat-1")
	require.NoError(t, err)
	assert.Contains(t, out, "getting close to your budget for Transportation")

	_, err = run(t, "", "tip", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRolloverStatus(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "", "rollover", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Up to date")
}

type closeFailWriter struct {
	bytes.Buffer
}

func (w *closeFailWriter) Close() error { return errors.New("no space left on device") }

func TestWriteExportReportsCloseError(t *testing.T) {
	w := &closeFailWriter{}
	err := writeExport(w, map[string]int{"income": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close export")
	assert.Contains(t, w.String(), `"income": 1`)
}
