package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// State is the observed condition of one physical slot.
type State int8

const (
	// Vacant means the slot sensor reports no unit docked.
	// It is the zero value so that missing entries compare as vacant.
	Vacant State = iota
	// Occupied means a unit is docked in the slot.
	Occupied
	// Unknown marks a position whose token could not be read.
	// Unknown positions never produce transitions.
	Unknown
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Vacant:
		return "vacant"
	case Occupied:
		return "occupied"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	st, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState parses a state name.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vacant":
		return Vacant, nil
	case "occupied":
		return Occupied, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid slot state %q", s)
}

// Snapshot is the full per-slot vector. Slot n lives at index n-1.
type Snapshot []State

// At returns the state of a 1-based slot. Slots beyond the vector are vacant.
func (s Snapshot) At(slot int) State {
	if slot < 1 || slot > len(s) {
		return Vacant
	}
	return s[slot-1]
}

// With returns a copy of the snapshot with one slot set. When the slot lies
// beyond the end, the slots in between are filled with pad.
func (s Snapshot) With(slot int, st, pad State) Snapshot {
	n := len(s)
	if slot > n {
		n = slot
	}
	out := make(Snapshot, n)
	copy(out, s)
	for i := len(s); i < n; i++ {
		out[i] = pad
	}
	if slot >= 1 {
		out[slot-1] = st
	}
	return out
}

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Equal reports whether two snapshots hold the same states at the same slots.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Encoding maps the wire digits of an occupancy payload to states.
// Payload values are always 0 or 1; OccupiedValue says which one means docked.
type Encoding struct {
	OccupiedValue int
}

// DefaultEncoding treats 1 as occupied and 0 as vacant.
var DefaultEncoding = Encoding{OccupiedValue: 1}

// Validate checks that the occupied value is a payload digit.
func (e Encoding) Validate() error {
	if e.OccupiedValue != 0 && e.OccupiedValue != 1 {
		return fmt.Errorf("occupied value must be 0 or 1, got %d", e.OccupiedValue)
	}
	return nil
}

// Decode converts one payload value into a state.
func (e Encoding) Decode(v int) State {
	switch v {
	case e.OccupiedValue:
		return Occupied
	case 1 - e.OccupiedValue:
		return Vacant
	}
	return Unknown
}

// Encode converts a state back into its payload value. Unknown encodes as -1.
func (e Encoding) Encode(s State) int {
	switch s {
	case Occupied:
		return e.OccupiedValue
	case Vacant:
		return 1 - e.OccupiedValue
	}
	return -1
}

// Parse reads a comma-separated occupancy payload. Tokens that are not
// integers or not one of the two payload values become Unknown in place, so
// slot positions never shift. valid counts the tokens that decoded.
func (e Encoding) Parse(payload []byte) (snap Snapshot, valid int) {
	raw := strings.TrimSpace(string(payload))
	if raw == "" {
		return Snapshot{}, 0
	}
	tokens := strings.Split(raw, ",")
	snap = make(Snapshot, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			snap[i] = Unknown
			continue
		}
		snap[i] = e.Decode(v)
		if snap[i] != Unknown {
			valid++
		}
	}
	return snap, valid
}

// Format renders a snapshot in the payload format.
func (e Encoding) Format(s Snapshot) string {
	parts := make([]string, len(s))
	for i, st := range s {
		parts[i] = strconv.Itoa(e.Encode(st))
	}
	return strings.Join(parts, ",")
}

// Transition is a change of one slot between two snapshots.
type Transition struct {
	Slot int   `json:"slot"`
	From State `json:"from"`
	To   State `json:"to"`
}

// ActionType is the ledger operation a transition maps to.
type ActionType string

const (
	// ActionBorrow records the unit as taken by the pending account.
	ActionBorrow ActionType = "borrow"
	// ActionReturn records the unit as handed back by the pending account.
	ActionReturn ActionType = "return"
)

// Action is a planned ledger mutation.
type Action struct {
	// Type specifies the operation to perform.
	Type ActionType `json:"type"`
	// Unit is the unit number, equal to the slot number.
	Unit int `json:"unit"`
	// Reason describes the transition that caused the action.
	Reason string `json:"reason"`
}

// Outcome is the result of applying one action.
type Outcome struct {
	Action Action `json:"action"`
	// Error is empty when the action was applied.
	Error string `json:"error,omitempty"`
}

// Applied reports whether the action succeeded.
func (o Outcome) Applied() bool { return o.Error == "" }

// Plan contains the diff of one occupancy event and the actions it implies.
type Plan struct {
	// Account is the pending identity the actions are attributed to.
	Account string `json:"account"`
	// Previous is the cached snapshot the event was compared against.
	Previous Snapshot `json:"previous"`
	// Current is the snapshot to cache once the event is processed.
	Current Snapshot `json:"current"`
	// Transitions lists every changed slot in ascending order.
	Transitions []Transition `json:"transitions"`
	// Actions lists the ledger mutations derived from the transitions.
	Actions []Action `json:"actions"`
	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	Borrows int `json:"borrows"`
	Returns int `json:"returns"`
	// Unreadable counts positions skipped because their token was malformed.
	Unreadable int `json:"unreadable"`
}

// ReconcileOptions controls plan application.
type ReconcileOptions struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool
}
