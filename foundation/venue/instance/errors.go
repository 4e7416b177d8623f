package instance

import "errors"

// Set of reason codes returned when an operation is rejected. Every failure
// is all-or-nothing; no partial mutation is retained.
var (
	ErrWrongState         = errors.New("operation not legal in current state")
	ErrAlreadyInitialized = errors.New("instrument already initialized")
	ErrNotIssuer          = errors.New("caller is not the issuing holder")
	ErrNotHolder          = errors.New("caller holds no units")
	ErrNotController      = errors.New("caller does not hold a controlling stake")
	ErrZeroAmount         = errors.New("zero amount")
	ErrAmountTooLarge     = errors.New("amount too large")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInvalidTaxRate     = errors.New("invalid tax rate")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrUnitsOutOfRange    = errors.New("units out of range")
)
