// Package report derives read-only views over live and archived months.
// Nothing here mutates its inputs.
package report

import (
	"slices"
	"sort"

	"anggaran/internal/allocation"
	"anggaran/internal/core"
)

// TipThreshold is the spent/budget ratio from which a category gets a
// spending tip.
const TipThreshold = 0.85

// Input is the state a report is computed over.
type Input struct {
	Categories []core.Category
	Archives   []core.MonthlyArchive
	Incomes    []core.Income
}

type CategoryTotal struct {
	ID      string                    `json:"id"`
	Name    string                    `json:"name"`
	Color   string                    `json:"color"`
	Icon    string                    `json:"icon"`
	Total   core.Money                `json:"total"`
	Monthly map[core.Month]core.Money `json:"monthly"`
}

type Result struct {
	Start         core.Month                `json:"start"`
	End           core.Month                `json:"end"`
	Months        []core.Month              `json:"months"`
	TotalIncome   core.Money                `json:"totalIncome"`
	TotalSpent    core.Money                `json:"totalSpent"`
	IncomeByMonth map[core.Month]core.Money `json:"incomeByMonth"`
	Incomes       []core.Income             `json:"incomes"`
	Categories    []CategoryTotal           `json:"categories"`
}

// AvailableMonths lists every month that has a live expense or an
// archive, ascending and without duplicates.
func AvailableMonths(categories []core.Category, archives []core.MonthlyArchive) []core.Month {
	seen := make(map[core.Month]struct{})
	for _, c := range categories {
		for _, e := range c.Expenses {
			if !e.Date.IsZero() {
				seen[e.Date.YearMonth()] = struct{}{}
			}
		}
	}
	for _, a := range archives {
		if a.Month != "" {
			seen[a.Month] = struct{}{}
		}
	}
	months := make([]core.Month, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	slices.Sort(months)
	return months
}

// Aggregate totals income and per-category spending for every available
// month between start and end inclusive. An archived month is read from
// its snapshot; other months from live data filtered by date.
func Aggregate(in Input, start, end core.Month) (Result, error) {
	if !start.Valid() {
		return Result{}, core.Invalid("start", "must be YYYY-MM")
	}
	if !end.Valid() {
		return Result{}, core.Invalid("end", "must be YYYY-MM")
	}
	if start > end {
		return Result{}, core.Invalid("end", "must not be before start")
	}

	archived := make(map[core.Month]core.MonthlyArchive, len(in.Archives))
	for _, a := range in.Archives {
		archived[a.Month] = a
	}

	res := Result{
		Start:         start,
		End:           end,
		Months:        []core.Month{},
		IncomeByMonth: make(map[core.Month]core.Money),
		Incomes:       []core.Income{},
	}
	totals := make(map[string]*CategoryTotal)
	var order []string
	add := func(c core.Category, m core.Month, amount core.Money) {
		t, ok := totals[c.ID]
		if !ok {
			t = &CategoryTotal{ID: c.ID, Monthly: make(map[core.Month]core.Money)}
			totals[c.ID] = t
			order = append(order, c.ID)
		}
		t.Name, t.Color, t.Icon = c.Name, c.Color, c.Icon
		t.Total = t.Total.Add(amount)
		t.Monthly[m] = t.Monthly[m].Add(amount)
	}

	for _, m := range AvailableMonths(in.Categories, in.Archives) {
		if m < start || m > end {
			continue
		}
		res.Months = append(res.Months, m)

		var incomes []core.Income
		var monthIncome core.Money
		if a, ok := archived[m]; ok {
			for _, c := range a.Categories {
				for _, e := range c.Expenses {
					add(c, m, e.Amount)
				}
			}
			incomes = a.Incomes
			monthIncome = sumIncomes(incomes)
			if len(incomes) == 0 {
				monthIncome = a.Income
			}
		} else {
			for _, c := range in.Categories {
				for _, e := range c.Expenses {
					if e.Date.YearMonth() == m {
						add(c, m, e.Amount)
					}
				}
			}
			for _, inc := range in.Incomes {
				if inc.Date.YearMonth() == m {
					incomes = append(incomes, inc)
				}
			}
			monthIncome = sumIncomes(incomes)
		}
		res.Incomes = append(res.Incomes, incomes...)
		res.IncomeByMonth[m] = monthIncome
		res.TotalIncome = res.TotalIncome.Add(monthIncome)
	}

	res.Categories = make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		t := totals[id]
		if t.Total.IsZero() {
			continue
		}
		res.Categories = append(res.Categories, *t)
		res.TotalSpent = res.TotalSpent.Add(t.Total)
	}
	sort.SliceStable(res.Categories, func(i, j int) bool {
		return res.Categories[i].Total.GreaterThan(res.Categories[j].Total)
	})
	return res, nil
}

func sumIncomes(incomes []core.Income) core.Money {
	total := core.Money{}
	for _, inc := range incomes {
		total = total.Add(inc.Amount)
	}
	return total
}

type CategoryStatus struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Allocation   float64    `json:"allocation"`
	Budget       core.Money `json:"budget"`
	Spent        core.Money `json:"spent"`
	Remaining    core.Money `json:"remaining"`
	Usage        float64    `json:"usage"`
	TipSuggested bool       `json:"tipSuggested"`
}

// Summary is the current month at a glance.
type Summary struct {
	Income          core.Money       `json:"income"`
	TotalPlanned    core.Money       `json:"totalPlanned"`
	TotalSpent      core.Money       `json:"totalSpent"`
	Savings         core.Money       `json:"savings"`
	AllocationTotal float64          `json:"allocationTotal"`
	Balanced        bool             `json:"balanced"`
	Categories      []CategoryStatus `json:"categories"`
}

// Dashboard summarises the live month.
func Dashboard(income core.Money, categories []core.Category) Summary {
	s := Summary{
		Income:          income,
		AllocationTotal: allocation.Total(categories),
		Balanced:        allocation.Balanced(categories),
		Categories:      make([]CategoryStatus, 0, len(categories)),
	}
	for _, c := range categories {
		usage := c.Spent.Ratio(c.Budget)
		s.TotalPlanned = s.TotalPlanned.Add(c.Planned)
		s.TotalSpent = s.TotalSpent.Add(c.Spent)
		s.Categories = append(s.Categories, CategoryStatus{
			ID:           c.ID,
			Name:         c.Name,
			Allocation:   c.Allocation,
			Budget:       c.Budget,
			Spent:        c.Spent,
			Remaining:    c.Remaining(),
			Usage:        usage,
			TipSuggested: c.Budget.IsPositive() && usage >= TipThreshold,
		})
	}
	s.Savings = income.Sub(s.TotalSpent)
	return s
}
