package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/shelfwatch/backend-go/internal/domain"
)

// Merge folds normalized records, purchase-order events and an optional
// reorder trigger into a single sequence with exactly one entry per calendar
// day, sorted ascending.
//
// The working map is keyed by the normalized civil date, never by a formatted
// string, so a zone shift in a source row cannot mint a duplicate day. A date
// that carries only a PO ETA still appears in the output as a stub day, so
// operators see incoming stock even across forecast gaps.
//
// Inputs are read-only: aggregated values are freshly allocated, never written
// through a pointer shared with a caller's row, so rerunning Merge over the
// same slices yields the same result.
func Merge(records []domain.TimelineEntry, orders []domain.PurchaseOrderEvent, trigger *domain.ReorderTrigger) []domain.TimelineEntry {
	byDay := make(map[time.Time]*domain.TimelineEntry, len(records))

	for i := range records {
		if records[i].Date.IsZero() {
			continue
		}
		r := records[i]
		r.Date = domain.CivilDate(r.Date)
		byDay[r.Date] = &r
	}

	for _, po := range orders {
		if po.ETADate == nil || po.ETADate.IsZero() {
			continue
		}
		entry := lookupOrStub(byDay, *po.ETADate)
		entry.IsEvent = true
		entry.Note = appendTag(entry.Note, "ETA Date")
		entry.AlertType = appendTag(entry.AlertType, domain.AlertETA)
		if entry.ETADate == nil {
			eta := domain.CivilDate(*po.ETADate)
			entry.ETADate = &eta
		}

		// POs landing the same day accumulate, never overwrite. The sum gets
		// a fresh allocation so no write lands in a shared pointee.
		sum := po.IncomingQty
		if entry.IncomingQty != nil {
			sum += *entry.IncomingQty
		}
		entry.IncomingQty = &sum
	}

	if trigger != nil && !trigger.PlaceOrderDate.IsZero() {
		entry := lookupOrStub(byDay, trigger.PlaceOrderDate)
		entry.IsEvent = true
		entry.Note = appendTag(entry.Note, "Place Order")
		entry.AlertType = appendTag(entry.AlertType, domain.AlertPlaceOrder)
		entry.RequiredQty = intCopy(trigger.RequiredOrderQuantity)
	}

	merged := make([]domain.TimelineEntry, 0, len(byDay))
	for _, entry := range byDay {
		// The status flag is the single source of truth for surfacing
		// stockout risk: any flag containing "Alert" collapses the display
		// alert type to the depletion tag.
		if entry.StatusFlag != nil && strings.Contains(*entry.StatusFlag, "Alert") {
			entry.AlertType = domain.AlertDepletion
		}
		merged = append(merged, *entry)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

func lookupOrStub(byDay map[time.Time]*domain.TimelineEntry, date time.Time) *domain.TimelineEntry {
	day := domain.CivilDate(date)
	if entry, ok := byDay[day]; ok {
		return entry
	}
	entry := &domain.TimelineEntry{
		Date:       day,
		Day:        day.Weekday().String(),
		IsForecast: true,
	}
	byDay[day] = entry
	return entry
}

// appendTag adds tag to a comma-joined list unless it is already present, so
// several POs arriving on one day do not stack duplicate labels.
func appendTag(existing, tag string) string {
	if existing == "" {
		return tag
	}
	for _, part := range strings.Split(existing, ", ") {
		if part == tag {
			return existing
		}
	}
	return existing + ", " + tag
}
