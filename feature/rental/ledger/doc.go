// Package ledger is the durable rental record.
//
// A Ledger owns the rentals, slots and rental_history tables and the cached
// occupancy snapshot. Borrow and Return are transactional: the rental row,
// the slot mirror and the account's overdue flags change together or not at
// all. When an Actuator is supplied it runs between validation and the
// write, so a failed hardware command leaves the ledger untouched.
//
// Repeating a borrow or return that was already applied is rejected with
// ErrAlreadyRented or ErrNotRented, never double counted.
package ledger
