package app

import "errors"

// Error taxonomy for the money-movement operations. The API layer maps
// these to HTTP statuses with errors.Is; anything unrecognized surfaces as
// an internal error.
var (
	// ErrValidation covers missing or malformed input. Returned before any
	// transaction is opened.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers a missing recipient or recipient destination on
	// the send-money path.
	ErrNotFound = errors.New("not found")

	// ErrForbidden covers an account that does not resolve for the acting
	// user. Deliberately indistinguishable from "does not exist": the
	// responses never reveal whether someone else's account id is real.
	ErrForbidden = errors.New("account not accessible")

	// ErrInsufficientFunds is returned when the resolved source balance is
	// below the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
