// Package forecastperiod manages the ordered, non-overlapping daily-sales-rate
// intervals that the downstream forecast generator consumes.
package forecastperiod

import (
	"sort"
	"time"

	"github.com/shelfwatch/backend-go/internal/domain"
)

// Set holds one product's forecast periods ordered by start date and enforces
// the range invariants on every mutation. Mutations are applied one at a time
// per product; the set itself does no locking.
type Set struct {
	periods []domain.ForecastPeriod
}

// NewSet builds a set from previously persisted periods.
func NewSet(periods []domain.ForecastPeriod) *Set {
	s := &Set{periods: append([]domain.ForecastPeriod(nil), periods...)}
	s.sortByStart()
	return s
}

// Periods returns the periods ordered by start date.
func (s *Set) Periods() []domain.ForecastPeriod {
	return append([]domain.ForecastPeriod(nil), s.periods...)
}

// Add validates the period against every existing one and appends it. The set
// is unchanged when an error is returned.
func (s *Set) Add(p domain.ForecastPeriod) ([]domain.ForecastPeriod, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(p, ""); err != nil {
		return nil, err
	}

	s.periods = append(s.periods, normalized(p))
	s.sortByStart()
	return s.Periods(), nil
}

// Edit replaces the period identified by clientID, validating the new range
// against all other periods.
func (s *Set) Edit(clientID string, p domain.ForecastPeriod) ([]domain.ForecastPeriod, error) {
	idx := s.indexOf(clientID)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(p, clientID); err != nil {
		return nil, err
	}

	p.ClientID = clientID
	s.periods[idx] = normalized(p)
	s.sortByStart()
	return s.Periods(), nil
}

// Delete removes the period identified by clientID. Other periods keep their
// dates; there is no cascading renumbering of ranges.
func (s *Set) Delete(clientID string) ([]domain.ForecastPeriod, error) {
	idx := s.indexOf(clientID)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}

	s.periods = append(s.periods[:idx], s.periods[idx+1:]...)
	return s.Periods(), nil
}

// ProposeNextStart suggests the day after the latest period ends, or today
// when the set is empty. It is a UI default only, never a hard constraint.
func (s *Set) ProposeNextStart(now time.Time) time.Time {
	if len(s.periods) == 0 {
		return domain.CivilDate(now)
	}

	latest := s.periods[0].EndDate
	for _, p := range s.periods[1:] {
		if p.EndDate.After(latest) {
			latest = p.EndDate
		}
	}
	return domain.CivilDate(latest).AddDate(0, 0, 1)
}

func (s *Set) indexOf(clientID string) int {
	for i, p := range s.periods {
		if p.ClientID == clientID {
			return i
		}
	}
	return -1
}

func (s *Set) checkOverlap(p domain.ForecastPeriod, excludeClientID string) error {
	start := domain.CivilDate(p.StartDate)
	end := domain.CivilDate(p.EndDate)

	for _, existing := range s.periods {
		if excludeClientID != "" && existing.ClientID == excludeClientID {
			continue
		}
		if !start.After(domain.CivilDate(existing.EndDate)) && !end.Before(domain.CivilDate(existing.StartDate)) {
			return &domain.OverlapError{StartDate: start, EndDate: end, ClientID: existing.ClientID}
		}
	}
	return nil
}

func (s *Set) sortByStart() {
	sort.Slice(s.periods, func(i, j int) bool {
		return s.periods[i].StartDate.Before(s.periods[j].StartDate)
	})
}

func validate(p domain.ForecastPeriod) error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() || domain.CivilDate(p.EndDate).Before(domain.CivilDate(p.StartDate)) {
		return domain.ErrInvalidRange
	}
	if !p.DailyRate.IsPositive() {
		return domain.ErrInvalidRate
	}
	return nil
}

func normalized(p domain.ForecastPeriod) domain.ForecastPeriod {
	p.StartDate = domain.CivilDate(p.StartDate)
	p.EndDate = domain.CivilDate(p.EndDate)
	return p
}
