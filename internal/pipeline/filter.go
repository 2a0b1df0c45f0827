// Package pipeline narrows a normalized dataset by a filter selection and
// derives the aggregate views the dashboard draws.
package pipeline

import (
	"strings"
	"time"

	"mediapulse/pkg/contracts/domain"
)

const (
	noteNoDate     = "date filter ignored: the dataset has no date column"
	noteNoPlatform = "platform filter ignored: the dataset has no platform column"
)

// Filter returns the records of ds that match sel, in their original order.
// The date interval is applied first, then the platform.
func Filter(ds *domain.Dataset, sel domain.FilterSelection) *domain.Dataset {
	out, _ := filter(ds, sel)
	return out
}

func filter(ds *domain.Dataset, sel domain.FilterSelection) (*domain.Dataset, []string) {
	var notes []string
	records := ds.Records

	if sel.HasDateRange() {
		if ds.Has(domain.FieldDate) {
			records = byDate(records, sel)
		} else {
			notes = append(notes, noteNoDate)
		}
	}

	if sel.PlatformSelected() {
		if ds.Has(domain.FieldPlatform) {
			records = byPlatform(records, strings.TrimSpace(sel.Platform))
		} else {
			notes = append(notes, noteNoPlatform)
		}
	}

	return ds.WithRecords(records), notes
}

// byDate keeps records whose calendar day lies within [Start, End]
func byDate(records []domain.Record, sel domain.FilterSelection) []domain.Record {
	var start, end time.Time
	if sel.Start != nil {
		start = domain.CalendarDay(*sel.Start)
	}
	if sel.End != nil {
		end = domain.CalendarDay(*sel.End)
	}

	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		day := r.Day()
		if sel.Start != nil && day.Before(start) {
			continue
		}
		if sel.End != nil && day.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func byPlatform(records []domain.Record, platform string) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.Get(domain.FieldPlatform) == platform {
			out = append(out, r)
		}
	}
	return out
}
