package timeline

import (
	"fmt"
	"time"

	"github.com/shelfwatch/backend-go/internal/domain"
)

// Countdown window for the T-minus label, in days before today.
const countdownWindowDays = 13

// Annotate fills the human-facing note on each entry relative to today.
// Entries within the trailing countdown window get a "T-N" label and the
// current day gets "Today". Notes already set by the merge pass (ETA and
// place-order markers) are never overwritten; annotation only fills blanks.
func Annotate(entries []domain.TimelineEntry, today time.Time) []domain.TimelineEntry {
	day := domain.CivilDate(today)

	for i := range entries {
		diffDays := int(entries[i].Date.Sub(day).Hours() / 24)

		switch {
		case diffDays == 0:
			entries[i].IsToday = true
			if entries[i].Note == "" {
				entries[i].Note = "Today"
			}
		case diffDays >= -countdownWindowDays && diffDays <= -1:
			if entries[i].Note == "" {
				entries[i].Note = fmt.Sprintf("T-%d", -diffDays)
			}
		}
	}

	return entries
}
