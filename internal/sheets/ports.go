package sheets

import (
	"context"

	"anggaran/internal/core"
)

// Ports for outbound adapters.
type (
	// ArchiveWriter mirrors a closed month somewhere outside the store.
	// Writing a month again replaces its earlier rows.
	ArchiveWriter interface {
		UpsertArchive(ctx context.Context, archive core.MonthlyArchive) error
	}
)

// ArchiveHeader names the columns of one archive row.
var ArchiveHeader = []string{"Month", "Category", "Allocation", "Planned", "Spent", "Remaining"}

// ArchiveRows flattens an archive into one row per category, in
// ArchiveHeader order. Amounts are whole Rupiah.
func ArchiveRows(archive core.MonthlyArchive) [][]any {
	rows := make([][]any, 0, len(archive.Categories))
	for _, c := range archive.Categories {
		rows = append(rows, []any{
			string(archive.Month),
			c.Name,
			c.Allocation,
			c.Planned.Decimal().Round(0).IntPart(),
			c.Spent.Decimal().Round(0).IntPart(),
			c.Remaining().Decimal().Round(0).IntPart(),
		})
	}
	return rows
}

// RowSpan is an inclusive range of 1-based sheet rows.
type RowSpan struct {
	First, Last int
}

// UpsertPlan places a month's rows in a sheet: write them starting at
// Start, after blanking every span in Clear.
type UpsertPlan struct {
	Start int
	Clear []RowSpan
}

// PlanUpsert decides where n rows for month go, given the first column of
// the sheet (one entry per used row). A month already present as one
// block of at least n rows is rewritten in place and its surplus rows are
// blanked. Otherwise the old rows are blanked and the new block goes after
// the last used row.
func PlanUpsert(firstColumn []string, month core.Month, n int) UpsertPlan {
	var spans []RowSpan
	count := 0
	for i, v := range firstColumn {
		if v != string(month) {
			continue
		}
		row := i + 1
		count++
		if len(spans) > 0 && spans[len(spans)-1].Last == row-1 {
			spans[len(spans)-1].Last = row
			continue
		}
		spans = append(spans, RowSpan{First: row, Last: row})
	}

	if len(spans) == 1 && n <= count {
		plan := UpsertPlan{Start: spans[0].First}
		if n < count {
			plan.Clear = []RowSpan{{First: spans[0].First + n, Last: spans[0].Last}}
		}
		return plan
	}
	return UpsertPlan{Start: len(firstColumn) + 1, Clear: spans}
}
