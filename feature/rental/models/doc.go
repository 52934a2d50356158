// Package models holds the ledger tables and the report types returned by
// the rental feature.
package models
