package models

import "time"

// Receipt is returned by a successful borrow or return.
type Receipt struct {
	Account    string     `json:"account"`
	Unit       int        `json:"unit"`
	BorrowedAt time.Time  `json:"borrowedAt"`
	DueAt      time.Time  `json:"dueAt"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
	// WasOverdue is computed at the time of return.
	WasOverdue bool `json:"wasOverdue"`
}

// HeldUnit is one outstanding loan as seen by its holder.
type HeldUnit struct {
	Unit       int       `json:"unit"`
	BorrowedAt time.Time `json:"borrowedAt"`
	DueAt      time.Time `json:"dueAt"`
	Overdue    bool      `json:"overdue"`
}

// ClosedRental is one returned loan.
type ClosedRental struct {
	Unit       int       `json:"unit"`
	BorrowedAt time.Time `json:"borrowedAt"`
	DueAt      time.Time `json:"dueAt"`
	ReturnedAt time.Time `json:"returnedAt"`
	WasOverdue bool      `json:"wasOverdue"`
}

// RentalView is the per-account history report.
type RentalView struct {
	Account string     `json:"account"`
	Held    []HeldUnit `json:"held"`
	// Overdue lists the held units whose due date has passed.
	Overdue []int          `json:"overdue"`
	Recent  []ClosedRental `json:"recent"`
	// UpdatedAt is the latest borrow or return for the account.
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ActiveRental is one outstanding loan in the station-wide listing.
type ActiveRental struct {
	Account    string    `json:"account"`
	Unit       int       `json:"unit"`
	BorrowedAt time.Time `json:"borrowedAt"`
	DueAt      time.Time `json:"dueAt"`
	Overdue    bool      `json:"overdue"`
}

// SlotView is one entry of the occupancy report.
type SlotView struct {
	Slot  int    `json:"slot"`
	State string `json:"state"`
}

// OccupancyReport is the current cached snapshot.
type OccupancyReport struct {
	Slots []SlotView `json:"slots"`
	// Payload is the snapshot in the wire format, e.g. "1,0,1".
	Payload string `json:"payload"`
}
