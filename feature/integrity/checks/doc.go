// Package checks holds the individual station integrity checks.
package checks
