package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"anggaran/internal/cache"
	"anggaran/internal/core"
	"anggaran/internal/ledger"
	applog "anggaran/internal/log"
	"anggaran/internal/report"
	"anggaran/internal/storage"
)

// ErrAllocationUnbalanced blocks expense logging while allocations do not
// total 100%.
var ErrAllocationUnbalanced = &core.ValidationError{Field: "allocation", Reason: "must total 100% before logging expenses"}

const undoCacheSize = 1024

type (
	// ArchivePublisher announces written archives.
	ArchivePublisher interface {
		PublishArchiveSync(ctx context.Context, month core.Month) error
	}

	// TipProvider returns advice for a category. It never fails.
	TipProvider interface {
		SpendingTip(ctx context.Context, name string, budget, spent core.Money) string
	}
)

// Options configures a BudgetService. Zero values fall back to defaults.
type Options struct {
	UndoWindow                time.Duration
	RequireBalancedAllocation bool
	Publisher                 ArchivePublisher
	Tips                      TipProvider
	Logger                    *applog.Logger
	Now                       func() time.Time
	NewID                     func() string
}

// UndoTicket identifies a deleted expense that can still be restored.
type UndoTicket struct {
	Token     string       `json:"undoToken"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Expense   core.Expense `json:"expense"`
}

// StateView is the full client-facing state.
type StateView struct {
	ledger.Snapshot
	LastActiveMonth core.Month              `json:"lastActiveMonth"`
	PendingRollover bool                    `json:"pendingRollover"`
	Allocation      ledger.AllocationStatus `json:"allocation"`
}

// RolloverStatus reports whether a new month is waiting to be opened.
type RolloverStatus struct {
	LastActiveMonth core.Month `json:"lastActiveMonth"`
	CurrentMonth    core.Month `json:"currentMonth"`
	Pending         bool       `json:"pending"`
}

// BudgetService serialises every operation on one Book and persists the
// slots each mutation touched.
type BudgetService struct {
	mu    sync.Mutex
	book  *ledger.Book
	store storage.Store

	publisher       ArchivePublisher
	tips            TipProvider
	undos           *cache.LRUCache[*ledger.Undo]
	requireBalanced bool
	now             func() time.Time
	logger          *applog.Logger
}

// NewBudgetService loads the book from store, seeds the default categories
// on first use and runs a rollover check.
func NewBudgetService(ctx context.Context, store storage.Store, opts Options) (*BudgetService, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = ledger.DefaultUndoWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(ctx)
	}
	logger = logger.WithComponent(applog.ComponentBudget)

	bookOpts := []ledger.Option{ledger.WithClock(opts.Now), ledger.WithUndoWindow(opts.UndoWindow)}
	if opts.NewID != nil {
		bookOpts = append(bookOpts, ledger.WithIDGenerator(opts.NewID))
	}
	book, seeded, err := LoadBook(ctx, store, bookOpts...)
	if err != nil {
		return nil, err
	}

	s := &BudgetService{
		book:            book,
		store:           store,
		publisher:       opts.Publisher,
		tips:            opts.Tips,
		undos:           cache.NewLRUCache[*ledger.Undo](undoCacheSize, 2*opts.UndoWindow).WithClock(opts.Now),
		requireBalanced: opts.RequireBalancedAllocation,
		now:             opts.Now,
		logger:          logger,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seeded {
		if err := s.store.Set(ctx, string(ledger.SlotCategories), book.Categories()); err != nil {
			return nil, fmt.Errorf("seed categories: %w", err)
		}
		logger.InfoContext(ctx, "Seeded default categories", "count", len(book.Categories()))
	}
	book.CheckRollover(s.now())
	if err := s.flushLocked(ctx); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Budget loaded",
		applog.FieldOperation, applog.OpStartup,
		"categories", len(book.Categories()),
		"archives", len(book.Archives()),
		"pending_rollover", book.PendingRollover())
	return s, nil
}

// LoadBook reads every slot from store. seeded is true when no categories
// were stored and the defaults were used.
func LoadBook(ctx context.Context, store storage.Store, opts ...ledger.Option) (book *ledger.Book, seeded bool, err error) {
	var st ledger.State
	if st.Income, err = storage.Load(ctx, store, string(ledger.SlotIncome), core.Money{}); err != nil {
		return nil, false, fmt.Errorf("load %s: %w", ledger.SlotIncome, err)
	}
	if st.Categories, err = storage.Load[[]core.Category](ctx, store, string(ledger.SlotCategories), nil); err != nil {
		return nil, false, fmt.Errorf("load %s: %w", ledger.SlotCategories, err)
	}
	if st.Goals, err = storage.Load[[]core.Goal](ctx, store, string(ledger.SlotGoals), nil); err != nil {
		return nil, false, fmt.Errorf("load %s: %w", ledger.SlotGoals, err)
	}
	if st.Sources, err = storage.Load[[]core.TransactionSource](ctx, store, string(ledger.SlotSources), nil); err != nil {
		return nil, false, fmt.Errorf("load %s: %w", ledger.SlotSources, err)
	}
	if st.Incomes, err = storage.Load[[]core.Income](ctx, store, string(ledger.SlotIncomes), nil); err != nil {
		return nil, false, fmt.Errorf("load %s: %w", ledger.SlotIncomes, err)
	}
	if st.LastActiveMonth, err = storage.Load(ctx, store, string(ledger.SlotLastActiveMonth), core.Month("")); err != nil {
		return nil, false, fmt.Errorf("load %s: %w", ledger.SlotLastActiveMonth, err)
	}
	if st.Archives, err = storage.Load[[]core.MonthlyArchive](ctx, store, string(ledger.SlotArchives), nil); err != nil {
		return nil, false, fmt.Errorf("load %s: %w", ledger.SlotArchives, err)
	}
	if len(st.Categories) == 0 {
		st.Categories = ledger.DefaultCategories()
		seeded = true
	}
	return ledger.New(st, opts...), seeded, nil
}

// mutate runs fn under the lock and persists what it changed. A rejected
// operation is logged and returned untouched. When persisting fails the
// change stays in memory and the unwritten slots are retried by the next
// flush.
func (s *BudgetService) mutate(ctx context.Context, op string, fn func(b *ledger.Book) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.book); err != nil {
		s.logger.WarnContext(ctx, "Budget operation rejected",
			applog.FieldOperation, op,
			applog.FieldError, err)
		return err
	}
	return s.flushLocked(ctx)
}

func (s *BudgetService) flushLocked(ctx context.Context) error {
	dirty := s.book.TakeDirty()
	for i, slot := range dirty {
		if err := s.store.Set(ctx, string(slot), s.book.SlotValue(slot)); err != nil {
			s.book.MarkDirty(dirty[i:]...)
			s.logger.ErrorContext(ctx, "Failed to persist slot",
				applog.FieldOperation, applog.OpFlush,
				applog.FieldSlot, string(slot),
				applog.FieldError, err)
			return fmt.Errorf("persist %s: %w", slot, err)
		}
		s.logger.DebugContext(ctx, "Slot persisted", applog.FieldSlot, string(slot))
	}
	return nil
}

func (s *BudgetService) read(fn func(b *ledger.Book)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.book)
}

// publishArchive announces an archive. Failures are logged only.
func (s *BudgetService) publishArchive(ctx context.Context, month core.Month) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No archive publisher configured, skipping event", applog.FieldMonth, string(month))
		return
	}
	if err := s.publisher.PublishArchiveSync(ctx, month); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish archive event",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldMonth, string(month),
			applog.FieldError, err)
	}
}

func (s *BudgetService) State() StateView {
	var v StateView
	s.read(func(b *ledger.Book) {
		v = StateView{
			Snapshot:        b.Export(),
			LastActiveMonth: b.LastActiveMonth(),
			PendingRollover: b.PendingRollover(),
			Allocation:      b.AllocationStatus(),
		}
	})
	return v
}

func (s *BudgetService) Dashboard() report.Summary {
	var sum report.Summary
	s.read(func(b *ledger.Book) { sum = report.Dashboard(b.Income(), b.Categories()) })
	return sum
}

func (s *BudgetService) SetIncome(ctx context.Context, amount core.Money) error {
	err := s.mutate(ctx, applog.OpUpdate, func(b *ledger.Book) error { return b.SetIncome(amount) })
	if err == nil {
		s.logger.InfoContext(ctx, "Monthly income set", applog.FieldAmount, amount.String())
	}
	return err
}

// UndoDelete restores an expense deleted with DeleteExpense. Tokens stay
// registered past their window so late or repeated calls get
// ledger.ErrUndoExpired or ledger.ErrUndoUsed rather than NotFound.
func (s *BudgetService) UndoDelete(ctx context.Context, token string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.undos.Get(token)
	if !ok {
		return core.Expense{}, core.NotFound("undo", token)
	}
	e, err := u.Apply()
	if err != nil {
		s.logger.WarnContext(ctx, "Undo rejected",
			applog.FieldOperation, applog.OpUndo,
			applog.FieldExpenseID, u.Expense().ID,
			applog.FieldError, err)
		return core.Expense{}, err
	}
	if err := s.flushLocked(ctx); err != nil {
		return core.Expense{}, err
	}
	s.logger.InfoContext(ctx, "Expense restored",
		applog.NewFields().WithOperation(applog.OpUndo).WithExpense(e.ID, e.CategoryID, e.SourceID, e.Amount.String()).ToSlice()...)
	return e, nil
}

// DeleteExpense removes an expense and returns a ticket for undoing it.
func (s *BudgetService) DeleteExpense(ctx context.Context, id string) (UndoTicket, error) {
	var u *ledger.Undo
	err := s.mutate(ctx, applog.OpDelete, func(b *ledger.Book) error {
		var err error
		u, err = b.DeleteExpense(id)
		return err
	})
	if err != nil {
		return UndoTicket{}, err
	}
	t := UndoTicket{Token: uuid.NewString(), ExpiresAt: u.ExpiresAt(), Expense: u.Expense()}
	s.undos.Set(t.Token, u)
	s.logger.InfoContext(ctx, "Expense deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithExpense(id, u.CategoryID(), t.Expense.SourceID, t.Expense.Amount.String()).ToSlice()...)
	return t, nil
}

func (s *BudgetService) AddExpense(ctx context.Context, in ledger.ExpenseInput) (core.Expense, error) {
	var e core.Expense
	err := s.mutate(ctx, applog.OpCreate, func(b *ledger.Book) error {
		if s.requireBalanced && !b.AllocationStatus().Balanced {
			return ErrAllocationUnbalanced
		}
		var err error
		e, err = b.AddExpense(in)
		return err
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Expense added",
			applog.NewFields().WithOperation(applog.OpCreate).WithExpense(e.ID, e.CategoryID, e.SourceID, e.Amount.String()).ToSlice()...)
	}
	return e, err
}

func (s *BudgetService) EditExpense(ctx context.Context, updated core.Expense) (core.Expense, error) {
	var e core.Expense
	err := s.mutate(ctx, applog.OpUpdate, func(b *ledger.Book) error {
		var err error
		e, err = b.EditExpense(updated)
		return err
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Expense updated",
			applog.NewFields().WithOperation(applog.OpUpdate).WithExpense(e.ID, e.CategoryID, e.SourceID, e.Amount.String()).ToSlice()...)
	}
	return e, err
}

func (s *BudgetService) ClearExpenses(ctx context.Context, categoryID string) error {
	return s.mutate(ctx, applog.OpDelete, func(b *ledger.Book) error { return b.ClearExpenses(categoryID) })
}

// UndoCache exposes the undo registry for periodic sweeping.
func (s *BudgetService) UndoCache() cache.Cleaner {
	return s.undos
}
