package ledger

import (
	"strings"

	"anggaran/internal/allocation"
	"anggaran/internal/core"
)

const (
	DefaultColor = "indigo"
	DefaultIcon  = "briefcase"
)

// CategoryInput carries the editable fields of a category.
type CategoryInput struct {
	Name       string  `json:"name"`
	Allocation float64 `json:"allocation"`
	Color      string  `json:"color"`
	Icon       string  `json:"icon"`
}

// AllocationStatus reports whether allocations add up to 100.
type AllocationStatus struct {
	Total    float64 `json:"total"`
	Balanced bool    `json:"balanced"`
}

func (b *Book) AllocationStatus() AllocationStatus {
	return AllocationStatus{
		Total:    allocation.Total(b.categories),
		Balanced: allocation.Balanced(b.categories),
	}
}

// SetIncome replaces the monthly income and recomputes every budget.
func (b *Book) SetIncome(amount core.Money) error {
	if amount.IsNegative() {
		return core.Invalid("income", "must not be negative")
	}
	b.income = amount
	allocation.ComputeBudgets(b.categories, b.income)
	b.markDirty(SlotIncome, SlotCategories)
	return nil
}

// SetAllocation sets one category's percentage. Negative and non-finite
// values become 0; the total is not enforced.
func (b *Book) SetAllocation(categoryID string, value float64) (core.Category, error) {
	i := b.categoryIndex(categoryID)
	if i < 0 {
		return core.Category{}, core.NotFound("category", categoryID)
	}
	c := &b.categories[i]
	c.Allocation = allocation.Clamp(value)
	c.Planned = b.income.Percent(c.Allocation)
	c.Budget = c.Planned
	b.markDirty(SlotCategories)
	return c.Clone(), nil
}

// AutoAdjustAllocation rescales allocations so they add up to exactly 100.
func (b *Book) AutoAdjustAllocation() {
	if len(b.categories) == 0 {
		return
	}
	allocation.AutoAdjust(b.categories)
	allocation.ComputeBudgets(b.categories, b.income)
	b.markDirty(SlotCategories)
}

func (b *Book) CreateCategory(in CategoryInput) (core.Category, error) {
	in, err := b.validateCategory(in, "")
	if err != nil {
		return core.Category{}, err
	}
	c := core.Category{
		ID:         b.newID(),
		Name:       in.Name,
		Allocation: in.Allocation,
		Planned:    b.income.Percent(in.Allocation),
		Color:      in.Color,
		Icon:       in.Icon,
		Expenses:   []core.Expense{},
		IsActive:   true,
	}
	c.Budget = c.Planned
	b.categories = append(b.categories, c)
	b.markDirty(SlotCategories)
	return c.Clone(), nil
}

// UpdateCategory edits name, allocation and appearance. Expenses and
// Spent are kept.
func (b *Book) UpdateCategory(id string, in CategoryInput) (core.Category, error) {
	i := b.categoryIndex(id)
	if i < 0 {
		return core.Category{}, core.NotFound("category", id)
	}
	in, err := b.validateCategory(in, id)
	if err != nil {
		return core.Category{}, err
	}
	c := &b.categories[i]
	c.Name = in.Name
	c.Allocation = in.Allocation
	c.Color = in.Color
	c.Icon = in.Icon
	c.Planned = b.income.Percent(c.Allocation)
	c.Budget = c.Planned
	b.markDirty(SlotCategories)
	return c.Clone(), nil
}

// DeleteCategory removes a category together with its expenses.
func (b *Book) DeleteCategory(id string) error {
	i := b.categoryIndex(id)
	if i < 0 {
		return core.NotFound("category", id)
	}
	b.categories = append(b.categories[:i], b.categories[i+1:]...)
	b.reindex()
	b.markDirty(SlotCategories)
	return nil
}

func (b *Book) validateCategory(in CategoryInput, selfID string) (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, core.ErrEmptyName
	}
	for _, c := range b.categories {
		if c.ID != selfID && core.SameName(c.Name, in.Name) {
			return in, core.Invalid("name", "is already used by another category")
		}
	}
	in.Allocation = allocation.Clamp(in.Allocation)
	if in.Allocation <= 0 {
		return in, core.Invalid("allocation", "must be greater than zero")
	}
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if in.Icon == "" {
		in.Icon = DefaultIcon
	}
	return in, nil
}

// DefaultCategories returns the starter set used when no categories have
// been stored yet. Budgets are left at zero; New computes them.
func DefaultCategories() []core.Category {
	seed := []struct {
		id, name    string
		alloc       float64
		color, icon string
	}{
		{"cat-1", "Transportation", 3, "indigo", "plane"},
		{"cat-2", "Phone/Internet", 1, "sky", "receipt"},
		{"cat-3", "Personal Care", 1, "emerald", "heart"},
		{"cat-4", "Medical", 1, "rose", "bolt"},
		{"cat-5", "Small Purchases", 1, "amber", "shopping-bag"},
		{"cat-6", "Emergency Fund", 1, "slate", "briefcase"},
		{"cat-7", "Food & Drinks", 10, "lime", "gift"},
		{"cat-8", "Entertainment/Leisure", 5, "violet", "film"},
		{"cat-9", "Shopping", 6, "cyan", "shopping-bag"},
		{"cat-10", "Dating", 15, "rose", "heart"},
		{"cat-11", "Home Allowance", 18, "amber", "home"},
		{"cat-12", "Sister's Snacks", 8, "emerald", "users"},
		{"cat-13", "Monthly Bills", 11, "sky", "receipt"},
		{"cat-14", "Long-term Savings", 10, "indigo", "banknotes"},
		{"cat-15", "Short-term Savings", 9, "violet", "currency-dollar"},
	}
	out := make([]core.Category, len(seed))
	for i, s := range seed {
		out[i] = core.Category{
			ID:         s.id,
			Name:       s.name,
			Allocation: s.alloc,
			Color:      s.color,
			Icon:       s.icon,
			Expenses:   []core.Expense{},
			IsActive:   true,
		}
	}
	return out
}
