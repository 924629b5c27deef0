package ledger

import (
	"slices"
	"strings"

	"anggaran/internal/core"
)

func (b *Book) AddGoal(name string, target core.Money) (core.Goal, error) {
	name, err := b.validateGoal(name, target, "")
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{ID: b.newID(), Name: name, TargetAmount: target}
	b.goals = append(b.goals, g)
	b.markDirty(SlotGoals)
	return g, nil
}

// UpdateGoal renames a goal or changes its target. CurrentAmount is kept.
func (b *Book) UpdateGoal(id, name string, target core.Money) (core.Goal, error) {
	gi := b.goalIndex(id)
	if gi < 0 {
		return core.Goal{}, core.NotFound("goal", id)
	}
	name, err := b.validateGoal(name, target, id)
	if err != nil {
		return core.Goal{}, err
	}
	b.goals[gi].Name = name
	b.goals[gi].TargetAmount = target
	b.markDirty(SlotGoals)
	return b.goals[gi], nil
}

// AllocateToGoal moves part of this month's unspent income into a goal.
func (b *Book) AllocateToGoal(id string, amount core.Money) (core.Goal, error) {
	gi := b.goalIndex(id)
	if gi < 0 {
		return core.Goal{}, core.NotFound("goal", id)
	}
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	if available := b.AvailableFunds(); amount.GreaterThan(available) {
		return core.Goal{}, &core.InsufficientFundsError{ID: "available funds", Available: available, Requested: amount}
	}
	b.goals[gi].CurrentAmount = b.goals[gi].CurrentAmount.Add(amount)
	b.markDirty(SlotGoals)
	return b.goals[gi], nil
}

func (b *Book) DeleteGoal(id string) error {
	gi := b.goalIndex(id)
	if gi < 0 {
		return core.NotFound("goal", id)
	}
	b.goals = slices.Delete(b.goals, gi, gi+1)
	b.markDirty(SlotGoals)
	return nil
}

func (b *Book) validateGoal(name string, target core.Money, selfID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", core.ErrEmptyName
	}
	if !target.IsPositive() {
		return "", core.Invalid("targetAmount", "must be greater than zero")
	}
	for _, g := range b.goals {
		if g.ID != selfID && core.SameName(g.Name, name) {
			return "", core.Invalid("name", "is already used by another goal")
		}
	}
	return name, nil
}

func (b *Book) goalIndex(id string) int {
	return slices.IndexFunc(b.goals, func(g core.Goal) bool { return g.ID == id })
}
