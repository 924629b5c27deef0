package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anggaran/internal/core"
)

func expense(id string, amount int64, date core.Date) core.Expense {
	return core.Expense{ID: id, Amount: core.NewMoney(amount), Date: date, Description: id}
}

func fixture() Input {
	return Input{
		Categories: []core.Category{
			{ID: "food", Name: "Food", Expenses: []core.Expense{
				expense("f1", 100, core.NewDate(2024, 3, 2)),
				expense("f2", 50, core.NewDate(2024, 3, 20)),
				expense("f3", 10, core.NewDate(2024, 2, 27)),
			}},
			{ID: "fun", Name: "Fun", Expenses: []core.Expense{
				expense("u1", 400, core.NewDate(2024, 3, 5)),
			}},
			{ID: "idle", Name: "Idle", Expenses: []core.Expense{}},
		},
		Archives: []core.MonthlyArchive{{
			Month:  "2024-01",
			Income: core.NewMoney(5000),
			Categories: []core.Category{
				{ID: "food", Name: "Groceries", Expenses: []core.Expense{expense("a1", 70, core.NewDate(2024, 1, 9))}},
				{ID: "old", Name: "Old", Expenses: []core.Expense{expense("a2", 30, core.NewDate(2024, 1, 12))}},
			},
			ArchivedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}},
		Incomes: []core.Income{
			{ID: "i1", Amount: core.NewMoney(1000), Date: core.NewDate(2024, 3, 1)},
			{ID: "i2", Amount: core.NewMoney(300), Date: core.NewDate(2024, 2, 1)},
		},
	}
}

func TestAvailableMonths(t *testing.T) {
	in := fixture()
	in.Archives = append(in.Archives, core.MonthlyArchive{Month: "2024-03"})
	got := AvailableMonths(in.Categories, in.Archives)
	assert.Equal(t, []core.Month{"2024-01", "2024-02", "2024-03"}, got)

	assert.Empty(t, AvailableMonths(nil, nil))
}

func TestAggregate(t *testing.T) {
	res, err := Aggregate(fixture(), "2024-01", "2024-03")
	require.NoError(t, err)

	assert.Equal(t, []core.Month{"2024-01", "2024-02", "2024-03"}, res.Months)
	require.Len(t, res.Categories, 3, "idle category dropped")

	assert.Equal(t, "fun", res.Categories[0].ID)
	assert.True(t, res.Categories[0].Total.Equal(core.NewMoney(400)))

	food := res.Categories[1]
	assert.Equal(t, "food", food.ID)
	assert.Equal(t, "Food", food.Name, "latest name wins")
	assert.True(t, food.Total.Equal(core.NewMoney(230)))
	assert.True(t, food.Monthly["2024-01"].Equal(core.NewMoney(70)))
	assert.True(t, food.Monthly["2024-02"].Equal(core.NewMoney(10)))
	assert.True(t, food.Monthly["2024-03"].Equal(core.NewMoney(150)))

	assert.Equal(t, "old", res.Categories[2].ID)

	assert.True(t, res.IncomeByMonth["2024-01"].Equal(core.NewMoney(5000)), "archive without income records uses its income")
	assert.True(t, res.TotalIncome.Equal(core.NewMoney(6300)))
	assert.Len(t, res.Incomes, 2)
	assert.True(t, res.TotalSpent.Equal(core.NewMoney(660)))
}

func TestAggregatePrefersArchiveForArchivedMonth(t *testing.T) {
	in := fixture()
	in.Archives = append(in.Archives, core.MonthlyArchive{
		Month:      "2024-03",
		Categories: []core.Category{{ID: "food", Name: "Food", Expenses: []core.Expense{expense("x", 1, core.NewDate(2024, 3, 1))}}},
		Incomes:    []core.Income{{ID: "ai", Amount: core.NewMoney(42), Date: core.NewDate(2024, 3, 1)}},
	})

	res, err := Aggregate(in, "2024-03", "2024-03")
	require.NoError(t, err)
	require.Len(t, res.Categories, 1)
	assert.True(t, res.Categories[0].Total.Equal(core.NewMoney(1)))
	assert.True(t, res.TotalIncome.Equal(core.NewMoney(42)))
}

func TestAggregateDoesNotMutate(t *testing.T) {
	in := fixture()
	before := len(in.Categories[0].Expenses)
	_, err := Aggregate(in, "2024-01", "2024-12")
	require.NoError(t, err)
	assert.Len(t, in.Categories[0].Expenses, before)
	assert.Equal(t, "Groceries", in.Archives[0].Categories[0].Name)
}

func TestAggregateRejectsBadRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end core.Month
	}{
		{"bad start", "2024-13", "2024-12"},
		{"bad end", "2024-01", "soon"},
		{"reversed", "2024-05", "2024-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(fixture(), tt.start, tt.end)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestDashboard(t *testing.T) {
	cats := []core.Category{
		{ID: "a", Allocation: 60, Budget: core.NewMoney(600), Planned: core.NewMoney(600), Spent: core.NewMoney(510)},
		{ID: "b", Allocation: 40, Budget: core.NewMoney(400), Planned: core.NewMoney(400), Spent: core.NewMoney(100)},
		{ID: "c", Allocation: 0, Spent: core.NewMoney(5)},
	}
	s := Dashboard(core.NewMoney(1000), cats)

	assert.True(t, s.Balanced)
	assert.True(t, s.TotalPlanned.Equal(core.NewMoney(1000)))
	assert.True(t, s.TotalSpent.Equal(core.NewMoney(615)))
	assert.True(t, s.Savings.Equal(core.NewMoney(385)))

	assert.True(t, s.Categories[0].TipSuggested)
	assert.InDelta(t, 0.85, s.Categories[0].Usage, 1e-9)
	assert.False(t, s.Categories[1].TipSuggested)
	assert.False(t, s.Categories[2].TipSuggested, "no budget, no tip")
	assert.True(t, s.Categories[2].Remaining.Equal(core.NewMoney(-5)))
}
