package reconcile

import "fmt"

// Policy decides which ledger operation a slot transition stands for.
type Policy string

const (
	// PolicyWithdrawBorrows treats occupied->vacant as a borrow and
	// vacant->occupied as a return.
	PolicyWithdrawBorrows Policy = "withdraw-borrows"
	// PolicyWithdrawReturns is the inverse mapping, kept for firmware that
	// reports the opposite sense.
	PolicyWithdrawReturns Policy = "withdraw-returns"
)

// Validate reports an error for unknown policies.
func (p Policy) Validate() error {
	switch p {
	case PolicyWithdrawBorrows, PolicyWithdrawReturns:
		return nil
	}
	return fmt.Errorf("unknown transition policy %q", string(p))
}

// Classify maps a transition to an action type. ok is false for transitions
// that involve an unknown state.
func (p Policy) Classify(t Transition) (ActionType, bool) {
	var withdrawn bool
	switch {
	case t.From == Occupied && t.To == Vacant:
		withdrawn = true
	case t.From == Vacant && t.To == Occupied:
		withdrawn = false
	default:
		return "", false
	}
	if p == PolicyWithdrawReturns {
		withdrawn = !withdrawn
	}
	if withdrawn {
		return ActionBorrow, true
	}
	return ActionReturn, true
}

// SlotAfter returns the state a slot holds once the given action is applied.
func (p Policy) SlotAfter(a ActionType) State {
	borrowed := a == ActionBorrow
	if p == PolicyWithdrawReturns {
		borrowed = !borrowed
	}
	if borrowed {
		return Vacant
	}
	return Occupied
}
