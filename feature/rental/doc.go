// Package rental exposes the rental core over HTTP.
//
// # HTTP Endpoints
//
//   - POST /rental/borrow/:unit : Dispense a unit.
//   - POST /rental/return[/:unit] : Take a unit back (oldest held when no unit is given).
//   - GET /rental/status : Cached occupancy snapshot.
//   - GET /rental/history/:account : Held units, overdue units, recent returns.
//   - GET /rental/active : Every outstanding loan.
//   - GET /rental/events : Event journal for one day (?day=YYYY-MM-DD).
//
// Borrow and return take the account from the bearer token. Requests
// without a token (station kiosk, API key) consume the pending RFID identity
// instead, and fail with 401 when there is none.
//
// Subpackages hold the core: identity (tag lookup), ledger (durable record
// and snapshot cache), coordinator (identity/occupancy gate) and archive
// (event journal).
package rental
