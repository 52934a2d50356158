// Package integrity provides station health checks.
//
// # Checks Provided
//
//   - Consistency: Cross-checks the rental ledger with the cached occupancy
//     snapshot (rented units still docked, withdrawn units nobody rents,
//     rentals outside the slot range) and counts overdue units.
//   - Schema: Validates that the ledger tables carry every required column.
//   - Storage: Checks that the event journal bucket exists when the journal
//     is enabled.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/consistency : Runs the consistency check.
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/storage : Runs the storage check (supports ?fix=true).
package integrity
