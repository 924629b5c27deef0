package ledger

import (
	"slices"
	"strings"

	"anggaran/internal/core"
)

// IncomeInput is a new income. A zero Date means today.
type IncomeInput struct {
	SourceID    string     `json:"sourceId"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
}

// SourceSummary is a source with figures derived from the expense ledger.
// Remaining is a report value and is never stored.
type SourceSummary struct {
	core.TransactionSource
	UsedCount int        `json:"usedCount"`
	Spent     core.Money `json:"spent"`
	Remaining core.Money `json:"remaining"`
}

// AddIncome records an income at the front of the list and credits its
// source.
func (b *Book) AddIncome(in IncomeInput) (core.Income, error) {
	inc := core.Income{
		ID:          b.newID(),
		SourceID:    strings.TrimSpace(in.SourceID),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Date:        in.Date,
	}
	if inc.Date.IsZero() {
		inc.Date = core.DateOf(b.now())
	}
	if err := inc.Validate(); err != nil {
		return core.Income{}, err
	}
	si := b.sourceIndex(inc.SourceID)
	if si < 0 {
		return core.Income{}, core.NotFound("source", inc.SourceID)
	}

	b.sources[si].Balance = b.sources[si].Balance.Add(inc.Amount)
	b.incomes = slices.Insert(b.incomes, 0, inc)
	b.markDirty(SlotIncomes, SlotSources)
	return inc, nil
}

// EditIncome replaces an income and moves the difference between source
// balances. Balances never drop below zero.
func (b *Book) EditIncome(updated core.Income) (core.Income, error) {
	ii := b.incomeIndex(updated.ID)
	if ii < 0 {
		return core.Income{}, core.NotFound("income", updated.ID)
	}
	old := b.incomes[ii]

	updated.SourceID = strings.TrimSpace(updated.SourceID)
	updated.Description = strings.TrimSpace(updated.Description)
	if updated.Date.IsZero() {
		updated.Date = old.Date
	}
	if err := updated.Validate(); err != nil {
		return core.Income{}, err
	}
	ni := b.sourceIndex(updated.SourceID)
	if ni < 0 {
		return core.Income{}, core.NotFound("source", updated.SourceID)
	}

	if old.SourceID == updated.SourceID {
		delta := updated.Amount.Sub(old.Amount)
		b.sources[ni].Balance = b.sources[ni].Balance.Add(delta).ClampZero()
	} else {
		if oi := b.sourceIndex(old.SourceID); oi >= 0 {
			b.sources[oi].Balance = b.sources[oi].Balance.Sub(old.Amount).ClampZero()
		}
		b.sources[ni].Balance = b.sources[ni].Balance.Add(updated.Amount)
	}
	b.incomes[ii] = updated
	b.markDirty(SlotIncomes, SlotSources)
	return updated, nil
}

// DeleteIncome removes an income and debits its source, floored at zero.
func (b *Book) DeleteIncome(id string) error {
	ii := b.incomeIndex(id)
	if ii < 0 {
		return core.NotFound("income", id)
	}
	inc := b.incomes[ii]
	if si := b.sourceIndex(inc.SourceID); si >= 0 {
		b.sources[si].Balance = b.sources[si].Balance.Sub(inc.Amount).ClampZero()
	}
	b.incomes = slices.Delete(b.incomes, ii, ii+1)
	b.markDirty(SlotIncomes, SlotSources)
	return nil
}

// AddSource creates a funding source with a zero balance.
func (b *Book) AddSource(name string) (core.TransactionSource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.TransactionSource{}, core.ErrEmptyName
	}
	for _, s := range b.sources {
		if core.SameName(s.Name, name) {
			return core.TransactionSource{}, core.Invalid("name", "is already used by another source")
		}
	}
	s := core.TransactionSource{ID: b.newID(), Name: name}
	b.sources = append(b.sources, s)
	b.markDirty(SlotSources)
	return s, nil
}

// DeleteSource removes a source no expense refers to.
func (b *Book) DeleteSource(id string) error {
	si := b.sourceIndex(id)
	if si < 0 {
		return core.NotFound("source", id)
	}
	if n := b.sourceUsage(id); n > 0 {
		return &core.InUseError{Kind: "source", ID: id, Count: n}
	}
	b.sources = slices.Delete(b.sources, si, si+1)
	b.markDirty(SlotSources)
	return nil
}

// Transfer moves amount between two sources.
func (b *Book) Transfer(fromID, toID string, amount core.Money) error {
	fromID, toID = strings.TrimSpace(fromID), strings.TrimSpace(toID)
	switch {
	case fromID == "":
		return core.Invalid("fromId", "is required")
	case toID == "":
		return core.Invalid("toId", "is required")
	case fromID == toID:
		return core.Invalid("toId", "must differ from fromId")
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	fi := b.sourceIndex(fromID)
	if fi < 0 {
		return core.NotFound("source", fromID)
	}
	ti := b.sourceIndex(toID)
	if ti < 0 {
		return core.NotFound("source", toID)
	}
	if b.sources[fi].Balance.LessThan(amount) {
		return &core.InsufficientFundsError{ID: fromID, Available: b.sources[fi].Balance, Requested: amount}
	}

	b.sources[fi].Balance = b.sources[fi].Balance.Sub(amount)
	b.sources[ti].Balance = b.sources[ti].Balance.Add(amount)
	b.markDirty(SlotSources)
	return nil
}

// SourceSummaries lists sources with how often and how much each one was
// charged by this month's expenses.
func (b *Book) SourceSummaries() []SourceSummary {
	out := make([]SourceSummary, len(b.sources))
	for i, s := range b.sources {
		out[i].TransactionSource = s
	}
	for _, c := range b.categories {
		for _, e := range c.Expenses {
			si := b.sourceIndex(e.SourceID)
			if si < 0 {
				continue
			}
			out[si].UsedCount++
			out[si].Spent = out[si].Spent.Add(e.Amount)
		}
	}
	for i := range out {
		out[i].Remaining = out[i].Balance.Sub(out[i].Spent)
	}
	return out
}

func (b *Book) sourceUsage(id string) int {
	n := 0
	for _, c := range b.categories {
		for _, e := range c.Expenses {
			if e.SourceID == id {
				n++
			}
		}
	}
	return n
}

func (b *Book) incomeIndex(id string) int {
	return slices.IndexFunc(b.incomes, func(i core.Income) bool { return i.ID == id })
}
