package domain

import (
	"strings"
	"time"
)

// Canonical field names the pipeline understands
const (
	FieldDate        = "date"
	FieldSentiment   = "sentiment"
	FieldEngagements = "engagements"
	FieldPlatform    = "platform"
	FieldMediaType   = "media_type"
	FieldLocation    = "location"
)

// RequiredFields lists the fields a complete media intelligence export carries.
// Missing ones are reported, never fatal.
var RequiredFields = []string{
	FieldDate,
	FieldSentiment,
	FieldEngagements,
	FieldPlatform,
	FieldMediaType,
	FieldLocation,
}

// PlatformAll is the sentinel platform selection that disables the platform filter
const PlatformAll = "All"

// Record is one row of a normalized dataset.
// Values holds the raw cell text per normalized column; Date and Engagements
// hold the coerced values when the dataset has those columns.
type Record struct {
	Values      map[string]string `json:"values"`
	Date        time.Time         `json:"date,omitempty"`
	Engagements float64           `json:"engagements"`
}

// Get returns the trimmed value of a field, or "" when absent
func (r Record) Get(field string) string {
	return strings.TrimSpace(r.Values[field])
}

// Day returns the calendar day of the record's date at midnight UTC
func (r Record) Day() time.Time {
	return CalendarDay(r.Date)
}

// Dataset is an ordered sequence of records sharing a normalized schema.
// A Dataset is never mutated after ingestion.
type Dataset struct {
	Columns []string `json:"columns"`
	Records []Record `json:"-"`
}

// Has reports whether the dataset has the given normalized column
func (d *Dataset) Has(field string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == field {
			return true
		}
	}
	return false
}

// HasAll reports whether every field is present and returns the missing ones
func (d *Dataset) HasAll(fields ...string) (bool, []string) {
	var missing []string
	for _, f := range fields {
		if !d.Has(f) {
			missing = append(missing, f)
		}
	}
	return len(missing) == 0, missing
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// WithRecords returns a dataset with the same schema and the given records
func (d *Dataset) WithRecords(records []Record) *Dataset {
	return &Dataset{Columns: d.Columns, Records: records}
}

// DateRange returns the earliest and latest calendar days in the dataset.
// ok is false when the dataset has no date column or no rows.
func (d *Dataset) DateRange() (first, last time.Time, ok bool) {
	if !d.Has(FieldDate) || d.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = d.Records[0].Day(), d.Records[0].Day()
	for _, r := range d.Records[1:] {
		day := r.Day()
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}
	return first, last, true
}

// Distinct returns the distinct non-empty values of a field in first-occurrence order
func (d *Dataset) Distinct(field string) []string {
	if !d.Has(field) {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		v := r.Get(field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// CalendarDay truncates a timestamp to midnight UTC of its own calendar day
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire format for calendar days
const DateLayout = "2006-01-02"
