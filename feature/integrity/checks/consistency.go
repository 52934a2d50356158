package checks

import (
	"sort"
	"time"

	"umbrella-station/core/reconcile"
	"umbrella-station/feature/rental/models"
)

// ConsistencyReport compares the ledger with the cached snapshot.
type ConsistencyReport struct {
	Slots  int `json:"slots"`
	Active int `json:"active"`
	// RentedButDocked lists rented units whose slot reports the unit docked.
	RentedButDocked []int `json:"rented_but_docked"`
	// WithdrawnUnrented lists slots reporting a withdrawn unit nobody rents.
	WithdrawnUnrented []int `json:"withdrawn_unrented"`
	// OutOfRange lists rented units beyond the snapshot length.
	OutOfRange []int `json:"out_of_range"`
	Overdue    int   `json:"overdue"`
	Consistent bool  `json:"consistent"`
}

// CheckConsistency cross-checks rentals against the snapshot. withdrawn is
// the slot state a borrowed unit leaves behind.
func CheckConsistency(snap reconcile.Snapshot, rentals []models.ActiveRental, withdrawn reconcile.State, now time.Time) *ConsistencyReport {
	report := &ConsistencyReport{
		Slots:             len(snap),
		Active:            len(rentals),
		RentedButDocked:   []int{},
		WithdrawnUnrented: []int{},
		OutOfRange:        []int{},
	}

	rented := make(map[int]bool, len(rentals))
	for _, r := range rentals {
		rented[r.Unit] = true
		if !now.Before(r.DueAt) {
			report.Overdue++
		}
		if r.Unit > len(snap) {
			report.OutOfRange = append(report.OutOfRange, r.Unit)
			continue
		}
		if st := snap.At(r.Unit); st != withdrawn && st != reconcile.Unknown {
			report.RentedButDocked = append(report.RentedButDocked, r.Unit)
		}
	}
	for i, st := range snap {
		if st == withdrawn && !rented[i+1] {
			report.WithdrawnUnrented = append(report.WithdrawnUnrented, i+1)
		}
	}

	sort.Ints(report.RentedButDocked)
	sort.Ints(report.OutOfRange)
	report.Consistent = len(report.RentedButDocked) == 0 &&
		len(report.WithdrawnUnrented) == 0 &&
		len(report.OutOfRange) == 0
	return report
}
