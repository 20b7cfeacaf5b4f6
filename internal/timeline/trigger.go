package timeline

import (
	"sort"

	"github.com/shelfwatch/backend-go/internal/domain"
)

// ComputeTrigger scans the projection horizon for the first day whose
// remaining stock reaches zero or below and derives the date by which a new
// order must be placed. A nil result means no reorder is currently required;
// it is a normal outcome, not a failure.
//
// The required quantity is re-looked-up from the stockout-day projection row
// rather than recomputed. When that row carries no quantity the trigger's
// quantity stays nil and must be rendered as "N/A", never as zero.
//
// The calculation is pure: rerunning it over an unchanged projection set
// yields the identical trigger. Callers recompute from scratch whenever the
// projections or the lead time change.
func ComputeTrigger(projections []domain.DailyProjection, leadTimeDays int) *domain.ReorderTrigger {
	if leadTimeDays <= 0 {
		leadTimeDays = domain.DefaultReorderLeadTimeDays
	}

	ordered := make([]domain.DailyProjection, 0, len(projections))
	for _, p := range projections {
		if p.ForecastDate.IsZero() {
			continue
		}
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ForecastDate.Before(ordered[j].ForecastDate)
	})

	for _, p := range ordered {
		if p.RemainingStock == nil || *p.RemainingStock > 0 {
			continue
		}

		stockout := domain.CivilDate(p.ForecastDate)
		return &domain.ReorderTrigger{
			PlaceOrderDate:        stockout.AddDate(0, 0, -leadTimeDays),
			RequiredOrderQuantity: intCopy(p.RequiredOrderQuantity),
		}
	}

	return nil
}

// LeadTimeDays resolves the reorder lead time from a projection set, falling
// back to the given default, or to the business default when that is unset.
func LeadTimeDays(projections []domain.DailyProjection, fallback int) int {
	for _, p := range projections {
		if p.ReorderLeadTime != nil && *p.ReorderLeadTime > 0 {
			return *p.ReorderLeadTime
		}
	}
	if fallback > 0 {
		return fallback
	}
	return domain.DefaultReorderLeadTimeDays
}
