package record

import "errors"

var (
	// ErrNegativeDeltaYear is returned when a user's delta year is below zero.
	ErrNegativeDeltaYear = errors.New("delta year must not be negative")

	// ErrDeltaYearInFuture is returned when birth year plus delta year
	// lands beyond the current year.
	ErrDeltaYearInFuture = errors.New("birth year plus delta year exceeds the current year")
)
