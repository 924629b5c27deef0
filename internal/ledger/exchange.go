package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"anggaran/internal/core"
)

// Snapshot is the bulk export document.
type Snapshot struct {
	Categories      []core.Category          `json:"categories"`
	Goals           []core.Goal              `json:"goals"`
	Income          core.Money               `json:"income"`
	Sources         []core.TransactionSource `json:"sources"`
	Incomes         []core.Income            `json:"incomes"`
	MonthlyArchives []core.MonthlyArchive    `json:"monthlyArchives"`
}

// ImportPayload is a validated import document. A nil field was absent
// from the input and leaves the matching slot alone.
type ImportPayload struct {
	Income          *core.Money
	Categories      *[]core.Category
	Goals           *[]core.Goal
	Sources         *[]core.TransactionSource
	Incomes         *[]core.Income
	MonthlyArchives *[]core.MonthlyArchive
}

// Empty reports whether no known field was present.
func (p ImportPayload) Empty() bool {
	return p.Income == nil && p.Categories == nil && p.Goals == nil &&
		p.Sources == nil && p.Incomes == nil && p.MonthlyArchives == nil
}

func (b *Book) Export() Snapshot {
	return Snapshot{
		Categories:      b.Categories(),
		Goals:           b.Goals(),
		Income:          b.income,
		Sources:         b.Sources(),
		Incomes:         b.Incomes(),
		MonthlyArchives: b.Archives(),
	}
}

// ParseImport decodes and checks an import document. Any malformed field
// rejects the whole document.
func ParseImport(data []byte) (ImportPayload, error) {
	var p ImportPayload
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return p, &core.ImportError{Reason: "expected a JSON object"}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return p, &core.ImportError{Reason: "malformed JSON", Err: err}
	}

	var err error
	if p.Income, err = decodeField[core.Money](raw, "income"); err != nil {
		return ImportPayload{}, err
	}
	if p.Categories, err = decodeField[[]core.Category](raw, "categories"); err != nil {
		return ImportPayload{}, err
	}
	if p.Goals, err = decodeField[[]core.Goal](raw, "goals"); err != nil {
		return ImportPayload{}, err
	}
	if p.Sources, err = decodeField[[]core.TransactionSource](raw, "sources"); err != nil {
		return ImportPayload{}, err
	}
	if p.Incomes, err = decodeField[[]core.Income](raw, "incomes"); err != nil {
		return ImportPayload{}, err
	}
	if p.MonthlyArchives, err = decodeField[[]core.MonthlyArchive](raw, "monthlyArchives"); err != nil {
		return ImportPayload{}, err
	}
	if p.Empty() {
		return ImportPayload{}, &core.ImportError{Reason: "no known fields present"}
	}
	if err := p.validate(); err != nil {
		return ImportPayload{}, err
	}
	return p, nil
}

// decodeField returns nil when key is absent or null.
func decodeField[T any](raw map[string]json.RawMessage, key string) (*T, error) {
	msg, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(msg, v); err != nil {
		return nil, &core.ImportError{Reason: fmt.Sprintf("field %q has an unexpected shape", key), Err: err}
	}
	return v, nil
}

func (p ImportPayload) validate() error {
	reject := func(format string, args ...any) error {
		return &core.ImportError{Reason: fmt.Sprintf(format, args...)}
	}
	if p.Income != nil && p.Income.IsNegative() {
		return reject("income must not be negative")
	}
	if p.Categories != nil {
		for i, c := range *p.Categories {
			if strings.TrimSpace(c.Name) == "" {
				return reject("categories[%d] has no name", i)
			}
			for j, e := range c.Expenses {
				if e.Amount.IsNegative() {
					return reject("categories[%d].expenses[%d] has a negative amount", i, j)
				}
			}
		}
	}
	if p.Goals != nil {
		for i, g := range *p.Goals {
			if strings.TrimSpace(g.Name) == "" {
				return reject("goals[%d] has no name", i)
			}
		}
	}
	if p.Sources != nil {
		for i, s := range *p.Sources {
			if s.ID == "" {
				return reject("sources[%d] has no id", i)
			}
		}
	}
	if p.Incomes != nil {
		for i, inc := range *p.Incomes {
			if inc.Amount.IsNegative() {
				return reject("incomes[%d] has a negative amount", i)
			}
		}
	}
	if p.MonthlyArchives != nil {
		for i, a := range *p.MonthlyArchives {
			if !a.Month.Valid() {
				return reject("monthlyArchives[%d] has an invalid month %q", i, a.Month)
			}
		}
	}
	return nil
}

// Import replaces every slot present in p. Category totals and budgets are
// recomputed from expenses, income and allocations. When sources are not
// part of the payload, unknown source ids referenced by expenses get
// zero-balance placeholder sources.
func (b *Book) Import(p ImportPayload) {
	b.epoch++
	if p.Income != nil {
		b.income = *p.Income
		b.markDirty(SlotIncome, SlotCategories)
	}
	if p.Categories != nil {
		cats := core.CloneCategories(*p.Categories)
		for i := range cats {
			c := &cats[i]
			if c.ID == "" {
				c.ID = b.newID()
			}
			for j := range c.Expenses {
				if c.Expenses[j].ID == "" {
					c.Expenses[j].ID = b.newID()
				}
				c.Expenses[j].CategoryID = c.ID
			}
		}
		b.categories = cats
		b.markDirty(SlotCategories)
	}
	if p.Goals != nil {
		b.goals = cloneOrEmpty(*p.Goals)
		b.markDirty(SlotGoals)
	}
	if p.Incomes != nil {
		b.incomes = cloneOrEmpty(*p.Incomes)
		for i := range b.incomes {
			if b.incomes[i].ID == "" {
				b.incomes[i].ID = b.newID()
			}
		}
		b.markDirty(SlotIncomes)
	}
	if p.MonthlyArchives != nil {
		b.archives = nil
		for _, a := range *p.MonthlyArchives {
			b.archives = upsertArchive(b.archives, a.Clone())
		}
		b.markDirty(SlotArchives)
	}
	if p.Sources != nil {
		b.sources = cloneOrEmpty(*p.Sources)
		b.markDirty(SlotSources)
	} else if b.addPlaceholderSources() {
		b.markDirty(SlotSources)
	}
	b.normalize()
}

// addPlaceholderSources adds a source for every expense source id that is
// not known yet. It reports whether any were added.
func (b *Book) addPlaceholderSources() bool {
	added := false
	for _, c := range b.categories {
		for _, e := range c.Expenses {
			if e.SourceID == "" || b.sourceIndex(e.SourceID) >= 0 {
				continue
			}
			b.sources = append(b.sources, core.TransactionSource{
				ID:   e.SourceID,
				Name: "Source " + lastN(e.SourceID, 4),
			})
			added = true
		}
	}
	return added
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
