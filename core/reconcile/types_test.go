package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoding_Parse(t *testing.T) {
	tests := []struct {
		name      string
		enc       Encoding
		payload   string
		want      Snapshot
		wantValid int
	}{
		{"Default", DefaultEncoding, "1,0,1", Snapshot{Occupied, Vacant, Occupied}, 3},
		{"Whitespace", DefaultEncoding, " 1 , 0 ,1\n", Snapshot{Occupied, Vacant, Occupied}, 3},
		{"Inverted", Encoding{OccupiedValue: 0}, "1,0,1", Snapshot{Vacant, Occupied, Vacant}, 3},
		{"NonNumericInPlace", DefaultEncoding, "1,x,0", Snapshot{Occupied, Unknown, Vacant}, 2},
		{"OutOfRange", DefaultEncoding, "2,1,-1", Snapshot{Unknown, Occupied, Unknown}, 1},
		{"EmptyToken", DefaultEncoding, "1,,0", Snapshot{Occupied, Unknown, Vacant}, 2},
		{"Empty", DefaultEncoding, "   ", Snapshot{}, 0},
		{"AllGarbage", DefaultEncoding, "a,b", Snapshot{Unknown, Unknown}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, valid := tt.enc.Parse([]byte(tt.payload))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantValid, valid)
		})
	}
}

func TestEncoding_Format(t *testing.T) {
	assert.Equal(t, "1,0,1", DefaultEncoding.Format(Snapshot{Occupied, Vacant, Occupied}))
	assert.Equal(t, "0,1", Encoding{OccupiedValue: 0}.Format(Snapshot{Occupied, Vacant}))
	assert.Equal(t, "", DefaultEncoding.Format(Snapshot{}))
}

func TestEncoding_Validate(t *testing.T) {
	assert.NoError(t, Encoding{OccupiedValue: 0}.Validate())
	assert.NoError(t, Encoding{OccupiedValue: 1}.Validate())
	assert.Error(t, Encoding{OccupiedValue: 2}.Validate())
}

func TestSnapshot_AtAndWith(t *testing.T) {
	s := Snapshot{Occupied, Vacant}

	assert.Equal(t, Occupied, s.At(1))
	assert.Equal(t, Vacant, s.At(2))
	assert.Equal(t, Vacant, s.At(3))
	assert.Equal(t, Vacant, s.At(0))

	grown := s.With(4, Occupied, Vacant)
	assert.Equal(t, Snapshot{Occupied, Vacant, Vacant, Occupied}, grown)
	assert.Equal(t, Snapshot{Occupied, Vacant, Occupied, Occupied, Vacant}, s.With(5, Vacant, Occupied))
	assert.Equal(t, Snapshot{Occupied, Vacant}, s, "With must not mutate the receiver")

	assert.True(t, s.Equal(Snapshot{Occupied, Vacant}))
	assert.False(t, s.Equal(grown))
}

func TestState_Text(t *testing.T) {
	for _, st := range []State{Vacant, Occupied, Unknown} {
		text, err := st.MarshalText()
		require.NoError(t, err)
		parsed, err := ParseState(string(text))
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}
	_, err := ParseState("docked")
	assert.Error(t, err)

	var tr Transition
	require.NoError(t, json.Unmarshal([]byte(`{"slot":3,"from":"occupied","to":"vacant"}`), &tr))
	assert.Equal(t, Transition{Slot: 3, From: Occupied, To: Vacant}, tr)
}

func TestPolicy_Classify(t *testing.T) {
	withdraw := Transition{Slot: 1, From: Occupied, To: Vacant}
	dock := Transition{Slot: 1, From: Vacant, To: Occupied}

	tests := []struct {
		name   string
		policy Policy
		t      Transition
		want   ActionType
	}{
		{"WithdrawBorrows/withdraw", PolicyWithdrawBorrows, withdraw, ActionBorrow},
		{"WithdrawBorrows/dock", PolicyWithdrawBorrows, dock, ActionReturn},
		{"WithdrawReturns/withdraw", PolicyWithdrawReturns, withdraw, ActionReturn},
		{"WithdrawReturns/dock", PolicyWithdrawReturns, dock, ActionBorrow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.policy.Classify(tt.t)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := PolicyWithdrawBorrows.Classify(Transition{Slot: 1, From: Unknown, To: Vacant})
	assert.False(t, ok)
}

func TestPolicy_SlotAfter(t *testing.T) {
	assert.Equal(t, Vacant, PolicyWithdrawBorrows.SlotAfter(ActionBorrow))
	assert.Equal(t, Occupied, PolicyWithdrawBorrows.SlotAfter(ActionReturn))
	assert.Equal(t, Occupied, PolicyWithdrawReturns.SlotAfter(ActionBorrow))
	assert.Equal(t, Vacant, PolicyWithdrawReturns.SlotAfter(ActionReturn))

	assert.NoError(t, PolicyWithdrawBorrows.Validate())
	assert.Error(t, Policy("sideways").Validate())
}
