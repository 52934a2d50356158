// Package identity maps scanned RFID tags to rental accounts.
//
// The table is assembled once at startup and never changes afterwards, so
// resolution is a pure map lookup.
package identity
