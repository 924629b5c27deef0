package ledger

import (
	"errors"
	"slices"
	"strings"
	"time"

	"anggaran/internal/core"
)

var (
	ErrUndoExpired = errors.New("undo window has passed")
	ErrUndoUsed    = errors.New("undo already applied")
)

// ExpenseInput is a new expense. A zero Date means today.
type ExpenseInput struct {
	CategoryID  string     `json:"categoryId"`
	SourceID    string     `json:"sourceId"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
}

// AddExpense appends an expense to its category and raises Spent.
func (b *Book) AddExpense(in ExpenseInput) (core.Expense, error) {
	e := core.Expense{
		ID:          b.newID(),
		CategoryID:  strings.TrimSpace(in.CategoryID),
		SourceID:    strings.TrimSpace(in.SourceID),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Date:        in.Date,
	}
	if e.Date.IsZero() {
		e.Date = core.DateOf(b.now())
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	ci := b.categoryIndex(e.CategoryID)
	if ci < 0 {
		return core.Expense{}, core.NotFound("category", e.CategoryID)
	}
	if b.sourceIndex(e.SourceID) < 0 {
		return core.Expense{}, core.NotFound("source", e.SourceID)
	}

	c := &b.categories[ci]
	c.Expenses = append(c.Expenses, e)
	c.Spent = c.Spent.Add(e.Amount)
	b.index[e.ID] = ci
	b.markDirty(SlotCategories)
	return e, nil
}

// FindExpense returns the expense with the given id.
func (b *Book) FindExpense(id string) (core.Expense, error) {
	ci, ei := b.locateExpense(id)
	if ei < 0 {
		return core.Expense{}, core.NotFound("expense", id)
	}
	return b.categories[ci].Expenses[ei], nil
}

// DeleteExpense removes an expense and lowers its category's Spent,
// floored at zero. The returned Undo can put it back once, within the
// undo window.
func (b *Book) DeleteExpense(id string) (*Undo, error) {
	ci, ei := b.locateExpense(id)
	if ei < 0 {
		return nil, core.NotFound("expense", id)
	}
	c := &b.categories[ci]
	removed := c.Expenses[ei]
	c.Expenses = slices.Delete(c.Expenses, ei, ei+1)
	c.Spent = c.Spent.Sub(removed.Amount).ClampZero()
	delete(b.index, id)
	b.markDirty(SlotCategories)

	return &Undo{
		book:       b,
		expense:    removed,
		categoryID: c.ID,
		expiresAt:  b.now().Add(b.undoWindow),
		epoch:      b.epoch,
	}, nil
}

// EditExpense replaces an expense. Moving it to another category takes its
// old amount off the old category and adds the new amount to the new one.
func (b *Book) EditExpense(updated core.Expense) (core.Expense, error) {
	ci, ei := b.locateExpense(updated.ID)
	if ei < 0 {
		return core.Expense{}, core.NotFound("expense", updated.ID)
	}
	old := b.categories[ci].Expenses[ei]

	updated.Description = strings.TrimSpace(updated.Description)
	updated.CategoryID = strings.TrimSpace(updated.CategoryID)
	updated.SourceID = strings.TrimSpace(updated.SourceID)
	if updated.Date.IsZero() {
		updated.Date = old.Date
	}
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	ni := b.categoryIndex(updated.CategoryID)
	if ni < 0 {
		return core.Expense{}, core.NotFound("category", updated.CategoryID)
	}
	if b.sourceIndex(updated.SourceID) < 0 {
		return core.Expense{}, core.NotFound("source", updated.SourceID)
	}

	if ni == ci {
		c := &b.categories[ci]
		c.Expenses[ei] = updated
		c.Spent = c.Spent.Add(updated.Amount).Sub(old.Amount).ClampZero()
	} else {
		from := &b.categories[ci]
		from.Expenses = slices.Delete(from.Expenses, ei, ei+1)
		from.Spent = from.Spent.Sub(old.Amount).ClampZero()
		to := &b.categories[ni]
		to.Expenses = append(to.Expenses, updated)
		to.Spent = to.Spent.Add(updated.Amount)
		b.index[updated.ID] = ni
	}
	b.markDirty(SlotCategories)
	return updated, nil
}

// ClearExpenses empties a category and resets its Spent.
func (b *Book) ClearExpenses(categoryID string) error {
	i := b.categoryIndex(categoryID)
	if i < 0 {
		return core.NotFound("category", categoryID)
	}
	c := &b.categories[i]
	for _, e := range c.Expenses {
		delete(b.index, e.ID)
	}
	c.Expenses = []core.Expense{}
	c.Spent = core.Money{}
	b.markDirty(SlotCategories)
	return nil
}

// locateExpense returns category and expense positions, or -1s.
func (b *Book) locateExpense(id string) (int, int) {
	ci, ok := b.index[id]
	if !ok || ci >= len(b.categories) {
		return -1, -1
	}
	ei := slices.IndexFunc(b.categories[ci].Expenses, func(e core.Expense) bool { return e.ID == id })
	if ei < 0 {
		return -1, -1
	}
	return ci, ei
}

// Undo restores one deleted expense.
type Undo struct {
	book       *Book
	expense    core.Expense
	categoryID string
	expiresAt  time.Time
	epoch      uint64
	used       bool
}

func (u *Undo) Expense() core.Expense { return u.expense }
func (u *Undo) CategoryID() string    { return u.categoryID }
func (u *Undo) ExpiresAt() time.Time  { return u.expiresAt }

// Apply re-appends the expense to the category it was removed from. An
// archive reset or an import in between expires it.
func (u *Undo) Apply() (core.Expense, error) {
	if u.used {
		return core.Expense{}, ErrUndoUsed
	}
	b := u.book
	if b.now().After(u.expiresAt) || b.epoch != u.epoch {
		return core.Expense{}, ErrUndoExpired
	}
	ci := b.categoryIndex(u.categoryID)
	if ci < 0 {
		return core.Expense{}, core.NotFound("category", u.categoryID)
	}
	if b.sourceIndex(u.expense.SourceID) < 0 {
		return core.Expense{}, core.NotFound("source", u.expense.SourceID)
	}
	u.used = true
	e := u.expense
	e.CategoryID = u.categoryID
	c := &b.categories[ci]
	c.Expenses = append(c.Expenses, e)
	c.Spent = c.Spent.Add(e.Amount)
	b.index[e.ID] = ci
	b.markDirty(SlotCategories)
	return e, nil
}
