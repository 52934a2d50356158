package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_SameSnapshotIsEmpty(t *testing.T) {
	snapshots := []Snapshot{
		{},
		{Occupied},
		{Occupied, Vacant, Occupied},
		{Vacant, Vacant, Vacant, Vacant},
	}
	for _, s := range snapshots {
		assert.Empty(t, Diff(s, s), "diff of %v with itself", s)
	}
}

func TestDiff_SingleWithdrawal(t *testing.T) {
	prev, _ := DefaultEncoding.Parse([]byte("1,1,1"))
	cur, _ := DefaultEncoding.Parse([]byte("0,1,1"))

	got := Diff(prev, cur)
	assert.Equal(t, []Transition{{Slot: 1, From: Occupied, To: Vacant}}, got)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		prev Snapshot
		cur  Snapshot
		want []Transition
	}{
		{
			name: "Ascending order",
			prev: Snapshot{Vacant, Occupied, Vacant, Occupied},
			cur:  Snapshot{Occupied, Occupied, Occupied, Vacant},
			want: []Transition{
				{Slot: 1, From: Vacant, To: Occupied},
				{Slot: 3, From: Vacant, To: Occupied},
				{Slot: 4, From: Occupied, To: Vacant},
			},
		},
		{
			name: "Growth compares missing as vacant",
			prev: Snapshot{Occupied},
			cur:  Snapshot{Occupied, Occupied, Vacant},
			want: []Transition{{Slot: 2, From: Vacant, To: Occupied}},
		},
		{
			name: "Shrink compares missing as vacant",
			prev: Snapshot{Occupied, Occupied, Vacant},
			cur:  Snapshot{Occupied},
			want: []Transition{{Slot: 2, From: Occupied, To: Vacant}},
		},
		{
			name: "Unknown positions are skipped",
			prev: Snapshot{Occupied, Occupied},
			cur:  Snapshot{Unknown, Vacant},
			want: []Transition{{Slot: 2, From: Occupied, To: Vacant}},
		},
		{
			name: "Empty previous",
			prev: nil,
			cur:  Snapshot{Vacant, Occupied},
			want: []Transition{{Slot: 2, From: Vacant, To: Occupied}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.prev, tt.cur))
		})
	}
}

func TestMerge(t *testing.T) {
	prev := Snapshot{Occupied, Vacant, Occupied}

	t.Run("Unknown keeps previous", func(t *testing.T) {
		got := Merge(prev, Snapshot{Vacant, Unknown, Unknown})
		assert.Equal(t, Snapshot{Vacant, Vacant, Occupied}, got)
	})

	t.Run("Unknown beyond previous becomes vacant", func(t *testing.T) {
		got := Merge(prev, Snapshot{Occupied, Vacant, Occupied, Unknown})
		assert.Equal(t, Snapshot{Occupied, Vacant, Occupied, Vacant}, got)
	})

	t.Run("Takes current length", func(t *testing.T) {
		got := Merge(prev, Snapshot{Occupied})
		assert.Equal(t, Snapshot{Occupied}, got)
	})
}
