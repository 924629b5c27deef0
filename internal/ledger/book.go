// Package ledger holds the budgeting state and every operation that
// mutates it: categories and allocations, expenses, incomes, funding
// sources, goals, monthly rollover and bulk import/export.
//
// A Book is not safe for concurrent use. Callers serialise access (see
// services.BudgetService) so each operation runs to completion before the
// next one starts. Operations validate fully before touching state; a
// returned error means nothing changed.
package ledger

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"anggaran/internal/allocation"
	"anggaran/internal/core"
)

// Slot names a persisted piece of state. Values match the keys the browser
// build used so old exports and stores stay readable.
type Slot string

const (
	SlotIncome          Slot = "monthlyIncome"
	SlotCategories      Slot = "categories"
	SlotGoals           Slot = "goals"
	SlotSources         Slot = "sources"
	SlotIncomes         Slot = "incomes"
	SlotLastActiveMonth Slot = "lastActiveMonth"
	SlotArchives        Slot = "monthlyArchives"
)

// Slots lists every slot in load order.
var Slots = []Slot{
	SlotIncome, SlotCategories, SlotGoals, SlotSources,
	SlotIncomes, SlotLastActiveMonth, SlotArchives,
}

// DefaultUndoWindow bounds how long a deleted expense can be restored.
const DefaultUndoWindow = 5 * time.Second

// State is the full persisted state of a Book.
type State struct {
	Income          core.Money
	Categories      []core.Category
	Goals           []core.Goal
	Sources         []core.TransactionSource
	Incomes         []core.Income
	Archives        []core.MonthlyArchive
	LastActiveMonth core.Month
}

type Book struct {
	income          core.Money
	categories      []core.Category
	goals           []core.Goal
	sources         []core.TransactionSource
	incomes         []core.Income
	archives        []core.MonthlyArchive
	lastActiveMonth core.Month
	pendingRollover bool

	// bumped whenever the month's working state is replaced; pending undos
	// from an older epoch no longer apply
	epoch uint64

	// expense id -> index into categories
	index map[string]int
	dirty map[Slot]struct{}

	newID      func() string
	now        func() time.Time
	undoWindow time.Duration
}

type Option func(*Book)

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(b *Book) { b.newID = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(b *Book) { b.now = fn }
}

func WithUndoWindow(d time.Duration) Option {
	return func(b *Book) {
		if d > 0 {
			b.undoWindow = d
		}
	}
}

// New builds a Book from persisted state. Cached aggregates are re-derived:
// every category's Spent is recomputed from its expenses and Planned/Budget
// from income and allocation, so stored drift never survives a load.
func New(state State, opts ...Option) *Book {
	b := &Book{
		income:          state.Income,
		categories:      core.CloneCategories(state.Categories),
		goals:           slices.Clone(state.Goals),
		sources:         slices.Clone(state.Sources),
		incomes:         slices.Clone(state.Incomes),
		lastActiveMonth: state.LastActiveMonth,
		dirty:           make(map[Slot]struct{}),
		newID:           uuid.NewString,
		now:             time.Now,
		undoWindow:      DefaultUndoWindow,
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, a := range state.Archives {
		b.archives = upsertArchive(b.archives, a.Clone())
	}
	b.normalize()
	return b
}

// State returns a deep copy of the persisted state.
func (b *Book) State() State {
	return State{
		Income:          b.income,
		Categories:      b.Categories(),
		Goals:           b.Goals(),
		Sources:         b.Sources(),
		Incomes:         b.Incomes(),
		Archives:        b.Archives(),
		LastActiveMonth: b.lastActiveMonth,
	}
}

func (b *Book) Income() core.Money { return b.income }

func (b *Book) Categories() []core.Category {
	out := core.CloneCategories(b.categories)
	if out == nil {
		out = []core.Category{}
	}
	return out
}

// Category returns a copy of the category with the given id.
func (b *Book) Category(id string) (core.Category, error) {
	i := b.categoryIndex(id)
	if i < 0 {
		return core.Category{}, core.NotFound("category", id)
	}
	return b.categories[i].Clone(), nil
}

func (b *Book) Goals() []core.Goal { return cloneOrEmpty(b.goals) }

func (b *Book) Sources() []core.TransactionSource { return cloneOrEmpty(b.sources) }

func (b *Book) Incomes() []core.Income { return cloneOrEmpty(b.incomes) }

func (b *Book) Archives() []core.MonthlyArchive {
	out := make([]core.MonthlyArchive, len(b.archives))
	for i, a := range b.archives {
		out[i] = a.Clone()
	}
	return out
}

// Archive returns the archive stored for month.
func (b *Book) Archive(month core.Month) (core.MonthlyArchive, error) {
	for _, a := range b.archives {
		if a.Month == month {
			return a.Clone(), nil
		}
	}
	return core.MonthlyArchive{}, core.NotFound("archive", string(month))
}

func (b *Book) LastActiveMonth() core.Month { return b.lastActiveMonth }

// PendingRollover reports whether the last CheckRollover saw a new month
// that has not been confirmed or skipped yet.
func (b *Book) PendingRollover() bool { return b.pendingRollover }

// TotalSpent sums Spent across categories.
func (b *Book) TotalSpent() core.Money {
	total := core.Money{}
	for _, c := range b.categories {
		total = total.Add(c.Spent)
	}
	return total
}

// AvailableFunds is income minus everything spent this month.
func (b *Book) AvailableFunds() core.Money {
	return b.income.Sub(b.TotalSpent())
}

// TakeDirty returns the slots changed since the previous call, in load
// order, and resets the set.
func (b *Book) TakeDirty() []Slot {
	out := make([]Slot, 0, len(b.dirty))
	for _, s := range Slots {
		if _, ok := b.dirty[s]; ok {
			out = append(out, s)
		}
	}
	clear(b.dirty)
	return out
}

// SlotValue returns the current value of a slot, ready to be persisted.
func (b *Book) SlotValue(s Slot) any {
	switch s {
	case SlotIncome:
		return b.income
	case SlotCategories:
		return b.Categories()
	case SlotGoals:
		return b.Goals()
	case SlotSources:
		return b.Sources()
	case SlotIncomes:
		return b.Incomes()
	case SlotLastActiveMonth:
		return b.lastActiveMonth
	case SlotArchives:
		return b.Archives()
	}
	return nil
}

// MarkDirty queues slots for the next TakeDirty. It requeues slots whose
// write failed.
func (b *Book) MarkDirty(slots ...Slot) { b.markDirty(slots...) }

func (b *Book) markDirty(slots ...Slot) {
	for _, s := range slots {
		b.dirty[s] = struct{}{}
	}
}

// normalize re-derives every cached value and rebuilds the expense index.
func (b *Book) normalize() {
	if b.categories == nil {
		b.categories = []core.Category{}
	}
	for i := range b.categories {
		c := &b.categories[i]
		if c.Expenses == nil {
			c.Expenses = []core.Expense{}
		}
		c.Allocation = allocation.Clamp(c.Allocation)
		c.Spent = sumExpenses(c.Expenses)
	}
	allocation.ComputeBudgets(b.categories, b.income)
	b.reindex()
}

func (b *Book) reindex() {
	b.index = make(map[string]int)
	for i, c := range b.categories {
		for _, e := range c.Expenses {
			b.index[e.ID] = i
		}
	}
}

func (b *Book) categoryIndex(id string) int {
	return slices.IndexFunc(b.categories, func(c core.Category) bool { return c.ID == id })
}

func (b *Book) sourceIndex(id string) int {
	return slices.IndexFunc(b.sources, func(s core.TransactionSource) bool { return s.ID == id })
}

func sumExpenses(expenses []core.Expense) core.Money {
	total := core.Money{}
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
