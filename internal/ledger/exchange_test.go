package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anggaran/internal/core"
)

func TestExportImportRoundTrip(t *testing.T) {
	b, _, cat, src := seeded(t)
	fun, err := b.CreateCategory(CategoryInput{Name: "Fun", Allocation: 20})
	require.NoError(t, err)
	_, err = b.AddExpense(ExpenseInput{CategoryID: cat.ID, SourceID: src.ID, Description: "a", Amount: money(120_000)})
	require.NoError(t, err)
	_, err = b.AddExpense(ExpenseInput{CategoryID: fun.ID, SourceID: src.ID, Description: "b", Amount: money(30_500)})
	require.NoError(t, err)
	_, err = b.AddIncome(IncomeInput{SourceID: src.ID, Description: "pay", Amount: money(1_000_000)})
	require.NoError(t, err)
	_, err = b.AddGoal("Bike", money(2_000_000))
	require.NoError(t, err)
	b.ArchiveAndResetNow(b.now().AddDate(0, -1, 0))
	_, err = b.AddSource("Wallet")
	require.NoError(t, err)
	_, err = b.AddExpense(ExpenseInput{CategoryID: cat.ID, SourceID: b.Sources()[0].ID, Description: "c", Amount: money(9_000)})
	require.NoError(t, err)

	data, err := json.Marshal(b.Export())
	require.NoError(t, err)

	payload, err := ParseImport(data)
	require.NoError(t, err)
	fresh, _ := newTestBook(t, State{})
	fresh.Import(payload)

	want := b.Categories()
	got := fresh.Categories()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.True(t, want[i].Spent.Equal(got[i].Spent))
		assert.True(t, got[i].Planned.Equal(fresh.Income().Percent(got[i].Allocation)))
		assert.True(t, got[i].Budget.Equal(got[i].Planned))
	}
	assert.Equal(t, len(b.Archives()), len(fresh.Archives()))
	require.Len(t, fresh.Goals(), 1)
	assert.Equal(t, "Bike", fresh.Goals()[0].Name)
	assert.True(t, fresh.Goals()[0].TargetAmount.Equal(money(2_000_000)))
	assert.True(t, b.Income().Equal(fresh.Income()))
}

func TestImportRecomputesDerivedValues(t *testing.T) {
	doc := `{
		"income": 2000000,
		"categories": [{
			"id": "c1", "name": "Food", "allocation": 10,
			"spent": 1, "planned": 1, "budget": 1,
			"expenses": [
				{"id": "e1", "categoryId": "other", "sourceId": "src-abcd1234", "description": "x", "amount": 100, "date": "2024-01-02"},
				{"id": "e2", "sourceId": "src-abcd1234", "description": "y", "amount": 50, "date": "2024-01-03"}
			]
		}]
	}`
	payload, err := ParseImport([]byte(doc))
	require.NoError(t, err)
	assert.Nil(t, payload.Sources)

	b, _ := newTestBook(t, State{})
	b.Import(payload)

	c, err := b.Category("c1")
	require.NoError(t, err)
	assert.True(t, c.Spent.Equal(money(150)))
	assert.True(t, c.Planned.Equal(money(200_000)))
	for _, e := range c.Expenses {
		assert.Equal(t, "c1", e.CategoryID)
	}

	sources := b.Sources()
	require.Len(t, sources, 1, "one placeholder per unknown id")
	assert.Equal(t, "src-abcd1234", sources[0].ID)
	assert.Equal(t, "Source 1234", sources[0].Name)
	assert.True(t, sources[0].Balance.IsZero())

	e, err := b.FindExpense("e2")
	require.NoError(t, err)
	assert.Equal(t, "y", e.Description)
}

func TestImportKeepsAbsentSlots(t *testing.T) {
	b, _, cat, _ := seeded(t)
	_, err := b.AddGoal("Bike", money(1))
	require.NoError(t, err)
	b.TakeDirty()

	payload, err := ParseImport([]byte(`{"income": 500000}`))
	require.NoError(t, err)
	b.Import(payload)

	assert.Len(t, b.Goals(), 1)
	c, _ := b.Category(cat.ID)
	assert.True(t, c.Budget.Equal(money(250_000)))
	assert.Equal(t, []Slot{SlotIncome, SlotCategories}, b.TakeDirty())
}

func TestParseImportRejects(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"income": `,
		"array":             `[1, 2]`,
		"empty":             ``,
		"no known fields":   `{"foo": 1}`,
		"income as object":  `{"income": {"v": 1}}`,
		"categories shape":  `{"categories": {"id": "x"}}`,
		"bad amount":        `{"categories": [{"name": "A", "expenses": [{"amount": "lots"}]}]}`,
		"bad date":          `{"incomes": [{"amount": 1, "date": "yesterday"}]}`,
		"negative income":   `{"income": -5}`,
		"nameless category": `{"categories": [{"id": "c", "allocation": 5}]}`,
		"source without id": `{"sources": [{"name": "Cash"}]}`,
		"bad archive month": `{"monthlyArchives": [{"month": "January"}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseImport([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrImport)
		})
	}
}

func TestParseImportNullMeansAbsent(t *testing.T) {
	payload, err := ParseImport([]byte(`{"income": 10, "goals": null}`))
	require.NoError(t, err)
	assert.Nil(t, payload.Goals)
	require.NotNil(t, payload.Income)
	assert.True(t, payload.Income.Equal(money(10)))
}
