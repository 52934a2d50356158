// Package coordinator pairs identity scans with occupancy changes.
//
// The gate has two states. An identity scan that resolves moves it from Idle
// to AwaitingOccupancy; the next occupancy event is diffed against the cached
// snapshot, the resulting borrows and returns are applied to the ledger for
// that account, and the gate goes back to Idle. Direct borrow and return
// requests consume the pending identity when the caller supplies no account
// of its own.
package coordinator
