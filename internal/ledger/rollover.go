package ledger

import (
	"sort"
	"time"

	"anggaran/internal/allocation"
	"anggaran/internal/core"
)

// RolloverOptions controls how a new month is opened.
type RolloverOptions struct {
	// ResetExpenses archives the closing month and starts the new one
	// empty.
	ResetExpenses bool `json:"resetExpenses"`
	// NewIncome replaces the monthly income when set. Without it income
	// carries over unchanged.
	NewIncome *core.Money `json:"newIncome,omitempty"`
}

// CheckRollover compares the month of now with the last active month.
// The first check only records the month. Later checks flag a pending
// rollover when the month has changed.
func (b *Book) CheckRollover(now time.Time) bool {
	current := core.MonthOf(now)
	if b.lastActiveMonth == "" {
		b.lastActiveMonth = current
		b.markDirty(SlotLastActiveMonth)
		return false
	}
	b.pendingRollover = b.lastActiveMonth != current
	return b.pendingRollover
}

// ConfirmRollover opens the month of now. With ResetExpenses the closing
// month is archived under the last active month and returned.
func (b *Book) ConfirmRollover(now time.Time, opts RolloverOptions) (*core.MonthlyArchive, error) {
	if opts.NewIncome != nil && opts.NewIncome.IsNegative() {
		return nil, core.Invalid("newIncome", "must not be negative")
	}
	current := core.MonthOf(now)

	var archived *core.MonthlyArchive
	if opts.ResetExpenses {
		month := b.lastActiveMonth
		if month == "" {
			month = current
		}
		a := b.archiveAndReset(month, now)
		archived = &a
	}
	if opts.NewIncome != nil {
		b.income = *opts.NewIncome
		allocation.ComputeBudgets(b.categories, b.income)
		b.markDirty(SlotIncome, SlotCategories)
	}
	b.lastActiveMonth = current
	b.pendingRollover = false
	b.markDirty(SlotLastActiveMonth)
	return archived, nil
}

// SkipRollover opens the month of now without archiving anything.
func (b *Book) SkipRollover(now time.Time) {
	b.lastActiveMonth = core.MonthOf(now)
	b.pendingRollover = false
	b.markDirty(SlotLastActiveMonth)
}

// ArchiveAndResetNow archives the live state under the month of now and
// resets it, regardless of month boundaries.
func (b *Book) ArchiveAndResetNow(now time.Time) core.MonthlyArchive {
	current := core.MonthOf(now)
	a := b.archiveAndReset(current, now)
	b.lastActiveMonth = current
	b.pendingRollover = false
	b.markDirty(SlotLastActiveMonth)
	return a
}

// archiveAndReset snapshots the live month into an archive, then empties
// every category and clears incomes and sources.
func (b *Book) archiveAndReset(month core.Month, now time.Time) core.MonthlyArchive {
	a := core.MonthlyArchive{
		Month:      month,
		Income:     b.income,
		Categories: b.Categories(),
		Goals:      b.Goals(),
		Sources:    b.Sources(),
		Incomes:    b.Incomes(),
		ArchivedAt: now.UTC(),
	}
	b.archives = upsertArchive(b.archives, a.Clone())

	for i := range b.categories {
		b.categories[i].Expenses = []core.Expense{}
		b.categories[i].Spent = core.Money{}
	}
	b.incomes = []core.Income{}
	b.sources = []core.TransactionSource{}
	b.epoch++
	b.reindex()
	b.markDirty(SlotArchives, SlotCategories, SlotIncomes, SlotSources)
	return a
}

// upsertArchive replaces the archive for a.Month or inserts it, keeping
// the list sorted by month.
func upsertArchive(archives []core.MonthlyArchive, a core.MonthlyArchive) []core.MonthlyArchive {
	i := sort.Search(len(archives), func(i int) bool { return archives[i].Month >= a.Month })
	if i < len(archives) && archives[i].Month == a.Month {
		archives[i] = a
		return archives
	}
	archives = append(archives, core.MonthlyArchive{})
	copy(archives[i+1:], archives[i:])
	archives[i] = a
	return archives
}
