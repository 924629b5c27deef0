package memory

import (
	"context"
	"sort"
	"sync"

	"anggaran/internal/core"
	ports "anggaran/internal/sheets"
)

// Store keeps mirrored archives in memory. Rows are laid out the way the
// Google writer lays out the archive sheet, so a repeated month rewrites
// its rows instead of adding more.
type Store struct {
	mu       sync.Mutex
	archives map[core.Month]core.MonthlyArchive
	sheet    [][]any
}

var _ ports.ArchiveWriter = (*Store)(nil)

func New() *Store {
	return &Store{archives: make(map[core.Month]core.MonthlyArchive)}
}

func (s *Store) UpsertArchive(_ context.Context, archive core.MonthlyArchive) error {
	if !archive.Month.Valid() {
		return core.ErrInvalidMonth
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := ports.ArchiveRows(archive)
	plan := ports.PlanUpsert(s.firstColumn(), archive.Month, len(rows))
	for _, span := range plan.Clear {
		for r := span.First; r <= span.Last; r++ {
			s.sheet[r-1] = nil
		}
	}
	for i, row := range rows {
		at := plan.Start - 1 + i
		for len(s.sheet) <= at {
			s.sheet = append(s.sheet, nil)
		}
		s.sheet[at] = row
	}
	s.archives[archive.Month] = archive.Clone()
	return nil
}

// firstColumn mirrors reading column A: blank rows read as "".
func (s *Store) firstColumn() []string {
	col := make([]string, len(s.sheet))
	for i, row := range s.sheet {
		if len(row) > 0 {
			col[i], _ = row[0].(string)
		}
	}
	return col
}

// Archive returns the mirrored archive for month.
func (s *Store) Archive(month core.Month) (core.MonthlyArchive, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.archives[month]
	if !ok {
		return core.MonthlyArchive{}, false
	}
	return a.Clone(), true
}

// Rows returns the sheet rows holding month, top to bottom.
func (s *Store) Rows(month core.Month) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]any
	for _, row := range s.sheet {
		if len(row) > 0 && row[0] == string(month) {
			out = append(out, row)
		}
	}
	return out
}

// UsedRows counts non-blank sheet rows.
func (s *Store) UsedRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.sheet {
		if len(row) > 0 {
			n++
		}
	}
	return n
}

// Months lists mirrored months in ascending order.
func (s *Store) Months() []core.Month {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Month, 0, len(s.archives))
	for m := range s.archives {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
