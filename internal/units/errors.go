// internal/units/errors.go
package units

import "errors"

var (
	// ErrUnknownUnit reports that a unit token was not recognised and a default
	// unit was substituted. It is never fatal.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrIncompatibleUnits is returned when converting across unit kinds.
	ErrIncompatibleUnits = errors.New("incompatible units")
)
