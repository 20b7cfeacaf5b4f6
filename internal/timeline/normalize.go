// Package timeline fuses per-day sales history, depletion projections and
// purchase-order events into one canonical date-keyed sequence, and derives
// the reorder trigger from it.
package timeline

import (
	"time"

	"github.com/shelfwatch/backend-go/internal/domain"
)

// Normalize converts the three raw per-day inputs into a common record shape.
//
// Actual rows with zero units sold fall back to the daily forecast when one is
// present: a zero on a day that has not closed out in the source systems is
// indistinguishable from "no data yet", and a false zero-demand signal would
// poison the depletion projection. Projection rows that duplicate an actual
// date are dropped; actuals always win for the same calendar day. Rows with a
// zero date are skipped, not treated as an error.
func Normalize(actuals []domain.DailyActual, projections []domain.DailyProjection) []domain.TimelineEntry {
	records := make([]domain.TimelineEntry, 0, len(actuals)+len(projections))
	seen := make(map[time.Time]struct{}, len(actuals))

	for _, a := range actuals {
		if a.Date.IsZero() {
			continue
		}
		day := domain.CivilDate(a.Date)
		seen[day] = struct{}{}

		entry := domain.TimelineEntry{
			Date:      day,
			Day:       day.Weekday().String(),
			AlertType: domain.AlertActual,
		}

		switch {
		case a.UnitsSold != nil && *a.UnitsSold == 0 && a.DailyForecast != nil && *a.DailyForecast > 0:
			sold := *a.DailyForecast
			entry.UnitsSold = &sold
			entry.AlertType = domain.AlertForecast
		case a.UnitsSold != nil:
			sold := float64(*a.UnitsSold)
			entry.UnitsSold = &sold
		}

		records = append(records, entry)
	}

	for _, p := range projections {
		if p.ForecastDate.IsZero() {
			continue
		}
		day := domain.CivilDate(p.ForecastDate)
		if _, ok := seen[day]; ok {
			continue
		}

		// Pointer fields are copied, never aliased, so no downstream pass can
		// write into the caller's projection rows.
		entry := domain.TimelineEntry{
			Date:           day,
			Day:            p.DayName,
			RemainingStock: intCopy(p.RemainingStock),
			AlertType:      domain.AlertForecast,
			IsForecast:     true,
			StatusFlag:     strCopy(p.StatusFlag),
			ETADate:        timeCopy(p.ETADate),
			IncomingQty:    intCopy(p.IncomingQuantity),
		}
		if entry.Day == "" {
			entry.Day = day.Weekday().String()
		}
		if p.DailyForecast != nil {
			sold := *p.DailyForecast
			entry.UnitsSold = &sold
		}

		records = append(records, entry)
	}

	return records
}

func intCopy(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func strCopy(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func timeCopy(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
