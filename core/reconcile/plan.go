package reconcile

import (
	"context"
	"fmt"
)

// Mutator applies planned actions to the rental ledger.
type Mutator interface {
	Borrow(ctx context.Context, account string, unit int) error
	Return(ctx context.Context, account string, unit int) error
}

// BuildPlan diffs an incoming snapshot against the cached one and derives
// the ledger actions for the given account. It does NOT execute actions; use
// ApplyPlan for that.
func BuildPlan(account string, previous, current Snapshot, policy Policy) *Plan {
	transitions := Diff(previous, current)
	plan := &Plan{
		Account:     account,
		Previous:    previous.Clone(),
		Current:     Merge(previous, current),
		Transitions: transitions,
		Actions:     make([]Action, 0, len(transitions)),
	}
	plan.Summary.Unreadable = countUnknown(current)

	for _, t := range transitions {
		actionType, ok := policy.Classify(t)
		if !ok {
			continue
		}
		plan.Actions = append(plan.Actions, Action{
			Type:   actionType,
			Unit:   t.Slot,
			Reason: fmt.Sprintf("slot %d: %s -> %s", t.Slot, t.From, t.To),
		})
		switch actionType {
		case ActionBorrow:
			plan.Summary.Borrows++
		case ActionReturn:
			plan.Summary.Returns++
		}
	}
	return plan
}

// ApplyPlan executes the actions of a plan in order. A failing action does
// not stop the remaining ones; every action gets an Outcome. Nothing runs
// when opts.DryRun is set.
func ApplyPlan(ctx context.Context, plan *Plan, mutator Mutator, opts ReconcileOptions) []Outcome {
	outcomes := make([]Outcome, 0, len(plan.Actions))
	if opts.DryRun {
		return outcomes
	}

	for _, action := range plan.Actions {
		var err error
		switch action.Type {
		case ActionBorrow:
			err = mutator.Borrow(ctx, plan.Account, action.Unit)
		case ActionReturn:
			err = mutator.Return(ctx, plan.Account, action.Unit)
		default:
			err = fmt.Errorf("unsupported action %q", action.Type)
		}
		outcome := Outcome{Action: action}
		if err != nil {
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Failed returns the outcomes that did not apply.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.Applied() {
			failed = append(failed, o)
		}
	}
	return failed
}
