package ledger

import "errors"

var (
	// ErrAlreadyRented is returned when the unit is held by any account.
	ErrAlreadyRented = errors.New("unit already rented")
	// ErrNotRented is returned when the unit is not held by the account.
	ErrNotRented = errors.New("unit not rented by account")
	// ErrUnknownAccount is returned when the account does not exist.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInvalidUnit is returned for unit numbers below 1.
	ErrInvalidUnit = errors.New("invalid unit number")
)
