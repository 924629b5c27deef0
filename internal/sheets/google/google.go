package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"anggaran/internal/core"
	applog "anggaran/internal/log"
	ports "anggaran/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultArchiveSheet = "Archive"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	archiveSheet  string
	logger        *applog.Logger
}

var _ ports.ArchiveWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_ARCHIVE_SHEET_NAME (default "Archive").
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx,
		strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		strings.TrimSpace(os.Getenv("GOOGLE_ARCHIVE_SHEET_NAME")))
}

func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if sheetName == "" {
		sheetName = defaultArchiveSheet
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		archiveSheet:  sheetName,
		logger:        applog.FromContext(ctx).WithComponent(applog.ComponentSheets),
	}, nil
}

// newSheetsService initializes a Sheets service from service account
// credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials()
	if err != nil {
		return nil, err
	}
	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func serviceAccountCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// UpsertArchive writes one row per category into the archive sheet. Rows
// already holding the month are rewritten or blanked, so resending a month
// never duplicates it.
func (c *Client) UpsertArchive(ctx context.Context, archive core.MonthlyArchive) error {
	if !archive.Month.Valid() {
		return fmt.Errorf("validation failed: %w", core.ErrInvalidMonth)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rows := ports.ArchiveRows(archive)

	rng := fmt.Sprintf("%s!A:A", c.archiveSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read month column of %s: %w", c.archiveSheet, err)
	}
	plan := ports.PlanUpsert(firstColumn(resp.Values), archive.Month, len(rows))

	if len(plan.Clear) > 0 {
		ranges := make([]string, len(plan.Clear))
		for i, span := range plan.Clear {
			ranges[i] = rowRange(c.archiveSheet, span.First, span.Last-span.First+1)
		}
		_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{Ranges: ranges}).
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to clear previous rows for %s: %w", archive.Month, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	dataRange := rowRange(c.archiveSheet, plan.Start, len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	c.logger.InfoContext(ctx, "Archive written to sheet",
		applog.FieldMonth, string(archive.Month),
		"range", dataRange,
		"rows", len(rows),
		"cleared_spans", len(plan.Clear))
	return nil
}

// firstColumn flattens a single-column read. Blank rows come back empty.
func firstColumn(values [][]interface{}) []string {
	col := make([]string, len(values))
	for i, row := range values {
		if len(row) > 0 {
			col[i] = fmt.Sprint(row[0])
		}
	}
	return col
}

// rowRange addresses n rows of the six archive columns starting at first.
func rowRange(sheet string, first, n int) string {
	return fmt.Sprintf("%s!A%d:F%d", sheet, first, first+n-1)
}
