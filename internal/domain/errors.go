package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for forecast-period validation and lookup. All are
// recoverable: the caller surfaces them and no partial mutation is applied.
var (
	ErrInvalidRange = errors.New("forecast period end date precedes start date")
	ErrInvalidRate  = errors.New("forecast period daily rate must be positive")
	ErrNotFound     = errors.New("forecast period not found")

	// ErrSuperseded marks a fetch whose result arrived after a newer request
	// for the same product was issued; the stale result must be discarded.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
)

// OverlapError reports a forecast period that intersects an existing one.
type OverlapError struct {
	StartDate time.Time
	EndDate   time.Time
	ClientID  string // the period it collides with
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("forecast period %s..%s overlaps period %s",
		e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"), e.ClientID)
}
