package sheets

import (
	"reflect"
	"testing"

	"anggaran/internal/core"
)

func TestPlanUpsert(t *testing.T) {
	sheet := []string{"Month", "2024-01", "2024-01", "2024-02", "2024-02", "2024-02"}

	tests := []struct {
		name   string
		column []string
		month  core.Month
		n      int
		want   UpsertPlan
	}{
		{"empty sheet", nil, "2024-03", 2, UpsertPlan{Start: 1}},
		{"new month appends", sheet, "2024-03", 2, UpsertPlan{Start: 7}},
		{"same size rewrites in place", sheet, "2024-01", 2, UpsertPlan{Start: 2}},
		{"fewer rows blanks the surplus", sheet, "2024-02", 1, UpsertPlan{Start: 4, Clear: []RowSpan{{5, 6}}}},
		{"no rows blanks the block", sheet, "2024-01", 0, UpsertPlan{Start: 2, Clear: []RowSpan{{2, 3}}}},
		{"more rows moves to the end", sheet, "2024-01", 3, UpsertPlan{Start: 7, Clear: []RowSpan{{2, 3}}}},
		{
			"split block is blanked and rewritten",
			[]string{"2024-01", "2024-02", "2024-01"}, "2024-01", 1,
			UpsertPlan{Start: 4, Clear: []RowSpan{{1, 1}, {3, 3}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlanUpsert(tt.column, tt.month, tt.n); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanUpsert() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestArchiveRows(t *testing.T) {
	a := core.MonthlyArchive{
		Month: "2024-02",
		Categories: []core.Category{
			{Name: "Food", Allocation: 60, Budget: core.NewMoney(600), Planned: core.NewMoney(600), Spent: core.NewMoney(700)},
		},
	}
	rows := ArchiveRows(a)
	want := [][]any{{"2024-02", "Food", 60.0, int64(600), int64(700), int64(-100)}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("ArchiveRows() = %v, want %v", rows, want)
	}
}
