// Package allocation derives budgets from percentage allocations and
// repairs allocation sets so they sum to exactly 100.
//
// Everything here is a pure function of its inputs; callers own the
// category slices and decide when to persist them.
package allocation

import (
	"math"
	"sort"

	"anggaran/internal/core"
)

const (
	// Full is the allocation total a valid budget must reach.
	Full = 100.0

	epsilon = 1e-9
)

// Clamp coerces a user supplied percentage: NaN and infinities become 0,
// negatives become 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Total sums the allocations of all categories.
func Total(categories []core.Category) float64 {
	total := 0.0
	for _, c := range categories {
		total += c.Allocation
	}
	return total
}

// Balanced reports whether the allocations add up to 100.
func Balanced(categories []core.Category) bool {
	return isFull(Total(categories))
}

// ComputeBudgets sets Planned and Budget to income*allocation/100 for every
// category, in place.
func ComputeBudgets(categories []core.Category, income core.Money) {
	for i := range categories {
		amount := income.Percent(categories[i].Allocation)
		categories[i].Planned = amount
		categories[i].Budget = amount
	}
}

// AutoAdjust normalises the allocations of categories in place so they sum
// to exactly 100. See Adjust for the algorithm.
func AutoAdjust(categories []core.Category) {
	current := make([]float64, len(categories))
	for i, c := range categories {
		current[i] = c.Allocation
	}
	for i, v := range Adjust(current) {
		categories[i].Allocation = v
	}
}

// Adjust returns a whole-number allocation set summing to 100.
//
// When the input already sums to 100, or no entry is positive, the result is
// an equal split (see Equalize). Otherwise the positive entries are rescaled
// to 100 keeping their relative weight: each gets the floor of its exact
// share and the leftover points go one at a time to the largest fractional
// remainders, ties broken by position. Non-positive entries become 0.
func Adjust(allocations []float64) []float64 {
	n := len(allocations)
	if n == 0 {
		return []float64{}
	}

	total := 0.0
	for _, v := range allocations {
		total += v
	}
	if isFull(total) {
		return Equalize(n)
	}

	adjustable := make([]int, 0, n)
	adjustableTotal := 0.0
	for i, v := range allocations {
		if v > 0 {
			adjustable = append(adjustable, i)
			adjustableTotal += v
		}
	}
	if len(adjustable) == 0 {
		return Equalize(n)
	}

	out := make([]float64, n)
	remainders := make([]float64, n)
	assigned := 0
	for _, i := range adjustable {
		exact := allocations[i] / adjustableTotal * Full
		floor := math.Floor(exact)
		out[i] = floor
		remainders[i] = exact - floor
		assigned += int(floor)
	}

	order := append([]int(nil), adjustable...)
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := 0; k < int(Full)-assigned && k < len(order); k++ {
		out[order[k]]++
	}
	return out
}

// Equalize splits 100 across n entries: floor(100/n) each, with the first
// 100 mod n entries receiving one extra point.
func Equalize(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	base := int(Full) / n
	remainder := int(Full) - base*n
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(base)
		if i < remainder {
			out[i]++
		}
	}
	return out
}

func isFull(total float64) bool {
	return math.Abs(total-Full) < epsilon
}
