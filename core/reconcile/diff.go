package reconcile

// Diff compares two snapshots slot by slot in ascending order. Missing
// trailing entries on either side compare as vacant. Positions where either
// side is Unknown are skipped.
func Diff(previous, current Snapshot) []Transition {
	n := len(previous)
	if len(current) > n {
		n = len(current)
	}
	var out []Transition
	for slot := 1; slot <= n; slot++ {
		from := previous.At(slot)
		to := current.At(slot)
		if from == Unknown || to == Unknown || from == to {
			continue
		}
		out = append(out, Transition{Slot: slot, From: from, To: to})
	}
	return out
}

// Merge builds the snapshot to cache after an event: the reported vector,
// with unreadable positions keeping their previous value.
func Merge(previous, current Snapshot) Snapshot {
	out := make(Snapshot, len(current))
	for i, st := range current {
		if st == Unknown {
			st = previous.At(i + 1)
		}
		out[i] = st
	}
	return out
}

// countUnknown returns the number of unreadable positions in a snapshot.
func countUnknown(s Snapshot) int {
	n := 0
	for _, st := range s {
		if st == Unknown {
			n++
		}
	}
	return n
}
