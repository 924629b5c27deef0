package services

import (
	"context"

	"anggaran/internal/core"
	"anggaran/internal/ledger"
	applog "anggaran/internal/log"
	"anggaran/internal/report"
	"anggaran/internal/tips"
)

func (s *BudgetService) Categories() []core.Category {
	var out []core.Category
	s.read(func(b *ledger.Book) { out = b.Categories() })
	return out
}

func (s *BudgetService) CreateCategory(ctx context.Context, in ledger.CategoryInput) (core.Category, error) {
	var c core.Category
	err := s.mutate(ctx, applog.OpCreate, func(b *ledger.Book) error {
		var err error
		c, err = b.CreateCategory(in)
		return err
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Category created", applog.FieldCategoryID, c.ID, "name", c.Name)
	}
	return c, err
}

func (s *BudgetService) UpdateCategory(ctx context.Context, id string, in ledger.CategoryInput) (core.Category, error) {
	var c core.Category
	err := s.mutate(ctx, applog.OpUpdate, func(b *ledger.Book) error {
		var err error
		c, err = b.UpdateCategory(id, in)
		return err
	})
	return c, err
}

func (s *BudgetService) DeleteCategory(ctx context.Context, id string) error {
	err := s.mutate(ctx, applog.OpDelete, func(b *ledger.Book) error { return b.DeleteCategory(id) })
	if err == nil {
		s.logger.InfoContext(ctx, "Category deleted", applog.FieldCategoryID, id)
	}
	return err
}

func (s *BudgetService) SetAllocation(ctx context.Context, id string, value float64) (core.Category, error) {
	var c core.Category
	err := s.mutate(ctx, applog.OpAllocate, func(b *ledger.Book) error {
		var err error
		c, err = b.SetAllocation(id, value)
		return err
	})
	return c, err
}

func (s *BudgetService) AutoAdjustAllocation(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	err := s.mutate(ctx, applog.OpAllocate, func(b *ledger.Book) error {
		b.AutoAdjustAllocation()
		out = b.Categories()
		return nil
	})
	return out, err
}

func (s *BudgetService) AddIncome(ctx context.Context, in ledger.IncomeInput) (core.Income, error) {
	var inc core.Income
	err := s.mutate(ctx, applog.OpCreate, func(b *ledger.Book) error {
		var err error
		inc, err = b.AddIncome(in)
		return err
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Income added",
			applog.FieldIncomeID, inc.ID,
			applog.FieldSourceID, inc.SourceID,
			applog.FieldAmount, inc.Amount.String())
	}
	return inc, err
}

func (s *BudgetService) EditIncome(ctx context.Context, updated core.Income) (core.Income, error) {
	var inc core.Income
	err := s.mutate(ctx, applog.OpUpdate, func(b *ledger.Book) error {
		var err error
		inc, err = b.EditIncome(updated)
		return err
	})
	return inc, err
}

func (s *BudgetService) DeleteIncome(ctx context.Context, id string) error {
	return s.mutate(ctx, applog.OpDelete, func(b *ledger.Book) error { return b.DeleteIncome(id) })
}

func (s *BudgetService) Sources() []ledger.SourceSummary {
	var out []ledger.SourceSummary
	s.read(func(b *ledger.Book) { out = b.SourceSummaries() })
	return out
}

func (s *BudgetService) AddSource(ctx context.Context, name string) (core.TransactionSource, error) {
	var src core.TransactionSource
	err := s.mutate(ctx, applog.OpCreate, func(b *ledger.Book) error {
		var err error
		src, err = b.AddSource(name)
		return err
	})
	return src, err
}

func (s *BudgetService) DeleteSource(ctx context.Context, id string) error {
	return s.mutate(ctx, applog.OpDelete, func(b *ledger.Book) error { return b.DeleteSource(id) })
}

func (s *BudgetService) Transfer(ctx context.Context, fromID, toID string, amount core.Money) error {
	err := s.mutate(ctx, applog.OpTransfer, func(b *ledger.Book) error { return b.Transfer(fromID, toID, amount) })
	if err == nil {
		s.logger.InfoContext(ctx, "Funds transferred",
			"from_source_id", fromID,
			"to_source_id", toID,
			applog.FieldAmount, amount.String())
	}
	return err
}

func (s *BudgetService) Goals() []core.Goal {
	var out []core.Goal
	s.read(func(b *ledger.Book) { out = b.Goals() })
	return out
}

func (s *BudgetService) AddGoal(ctx context.Context, name string, target core.Money) (core.Goal, error) {
	var g core.Goal
	err := s.mutate(ctx, applog.OpCreate, func(b *ledger.Book) error {
		var err error
		g, err = b.AddGoal(name, target)
		return err
	})
	return g, err
}

func (s *BudgetService) UpdateGoal(ctx context.Context, id, name string, target core.Money) (core.Goal, error) {
	var g core.Goal
	err := s.mutate(ctx, applog.OpUpdate, func(b *ledger.Book) error {
		var err error
		g, err = b.UpdateGoal(id, name, target)
		return err
	})
	return g, err
}

func (s *BudgetService) AllocateToGoal(ctx context.Context, id string, amount core.Money) (core.Goal, error) {
	var g core.Goal
	err := s.mutate(ctx, applog.OpAllocate, func(b *ledger.Book) error {
		var err error
		g, err = b.AllocateToGoal(id, amount)
		return err
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Goal funded", applog.FieldGoalID, id, applog.FieldAmount, amount.String())
	}
	return g, err
}

func (s *BudgetService) DeleteGoal(ctx context.Context, id string) error {
	return s.mutate(ctx, applog.OpDelete, func(b *ledger.Book) error { return b.DeleteGoal(id) })
}

// CheckRollover re-evaluates the month against the clock.
func (s *BudgetService) CheckRollover(ctx context.Context) (RolloverStatus, error) {
	var st RolloverStatus
	err := s.mutate(ctx, applog.OpRollover, func(b *ledger.Book) error {
		now := s.now()
		b.CheckRollover(now)
		st = RolloverStatus{LastActiveMonth: b.LastActiveMonth(), CurrentMonth: core.MonthOf(now), Pending: b.PendingRollover()}
		return nil
	})
	return st, err
}

// ConfirmRollover opens the current month. The returned archive is nil
// unless expenses were reset.
func (s *BudgetService) ConfirmRollover(ctx context.Context, opts ledger.RolloverOptions) (*core.MonthlyArchive, error) {
	var archived *core.MonthlyArchive
	err := s.mutate(ctx, applog.OpRollover, func(b *ledger.Book) error {
		var err error
		archived, err = b.ConfirmRollover(s.now(), opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	fields := applog.NewFields().WithOperation(applog.OpRollover)
	if archived != nil {
		fields.WithMonth(string(archived.Month))
	}
	s.logger.InfoContext(ctx, "Rollover confirmed", append(fields.ToSlice(), "reset_expenses", opts.ResetExpenses)...)
	if archived != nil {
		s.publishArchive(ctx, archived.Month)
	}
	return archived, nil
}

func (s *BudgetService) SkipRollover(ctx context.Context) error {
	err := s.mutate(ctx, applog.OpRollover, func(b *ledger.Book) error {
		b.SkipRollover(s.now())
		return nil
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Rollover skipped", applog.FieldOperation, applog.OpRollover)
	}
	return err
}

// ArchiveNow archives the current month and resets it.
func (s *BudgetService) ArchiveNow(ctx context.Context) (core.MonthlyArchive, error) {
	var a core.MonthlyArchive
	err := s.mutate(ctx, applog.OpArchive, func(b *ledger.Book) error {
		a = b.ArchiveAndResetNow(s.now())
		return nil
	})
	if err != nil {
		return core.MonthlyArchive{}, err
	}
	s.logger.InfoContext(ctx, "Month archived",
		applog.FieldOperation, applog.OpArchive,
		applog.FieldMonth, string(a.Month))
	s.publishArchive(ctx, a.Month)
	return a, nil
}

func (s *BudgetService) Archives() []core.MonthlyArchive {
	var out []core.MonthlyArchive
	s.read(func(b *ledger.Book) { out = b.Archives() })
	return out
}

func (s *BudgetService) AvailableMonths() []core.Month {
	var out []core.Month
	s.read(func(b *ledger.Book) { out = report.AvailableMonths(b.Categories(), b.Archives()) })
	return out
}

// Report aggregates spending and income for start..end inclusive.
func (s *BudgetService) Report(start, end core.Month) (report.Result, error) {
	var in report.Input
	s.read(func(b *ledger.Book) {
		in = report.Input{Categories: b.Categories(), Archives: b.Archives(), Incomes: b.Incomes()}
	})
	return report.Aggregate(in, start, end)
}

func (s *BudgetService) Export(ctx context.Context) ledger.Snapshot {
	var snap ledger.Snapshot
	s.read(func(b *ledger.Book) { snap = b.Export() })
	s.logger.InfoContext(ctx, "State exported", applog.FieldOperation, applog.OpExport)
	return snap
}

// Import parses data and replaces every slot it names. A rejected
// document changes nothing.
func (s *BudgetService) Import(ctx context.Context, data []byte) error {
	p, err := ledger.ParseImport(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Import rejected", applog.FieldOperation, applog.OpImport, applog.FieldError, err)
		return err
	}
	err = s.mutate(ctx, applog.OpImport, func(b *ledger.Book) error {
		b.Import(p)
		return nil
	})
	if err == nil {
		s.logger.InfoContext(ctx, "State imported", applog.FieldOperation, applog.OpImport)
	}
	return err
}

// SpendingTip asks the tip provider about a category.
func (s *BudgetService) SpendingTip(ctx context.Context, categoryID string) (string, error) {
	var (
		c   core.Category
		err error
	)
	s.read(func(b *ledger.Book) { c, err = b.Category(categoryID) })
	if err != nil {
		return "", err
	}
	if s.tips == nil {
		return tips.Fallback(c.Name), nil
	}
	return s.tips.SpendingTip(ctx, c.Name, c.Budget, c.Spent), nil
}
