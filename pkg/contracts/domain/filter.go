package domain

import (
	"strings"
	"time"
)

// FilterSelection is the user's current choice of platform and date interval.
// Every part is optional; the zero value selects everything.
type FilterSelection struct {
	Platform string     `json:"platform,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
}

// PlatformSelected reports whether a specific platform is chosen. Only the
// exact "All" means no filter; a platform literally named "all" is a value.
func (f FilterSelection) PlatformSelected() bool {
	p := strings.TrimSpace(f.Platform)
	return p != "" && p != PlatformAll
}

// HasDateRange reports whether either date bound is set
func (f FilterSelection) HasDateRange() bool {
	return f.Start != nil || f.End != nil
}

// FilterOptions describes the selectable values of an unfiltered dataset
type FilterOptions struct {
	Platforms []string   `json:"platforms"`
	MinDate   *time.Time `json:"min_date,omitempty"`
	MaxDate   *time.Time `json:"max_date,omitempty"`
}

// OptionsFor derives the filter options of a dataset: "All" followed by the
// platforms in first-occurrence order, and the dataset's date bounds.
func OptionsFor(ds *Dataset) FilterOptions {
	opts := FilterOptions{Platforms: append([]string{PlatformAll}, ds.Distinct(FieldPlatform)...)}
	if first, last, ok := ds.DateRange(); ok {
		opts.MinDate = &first
		opts.MaxDate = &last
	}
	return opts
}

// Defaults returns the selection a fresh dashboard starts with
func (o FilterOptions) Defaults() FilterSelection {
	return FilterSelection{
		Platform: PlatformAll,
		Start:    o.MinDate,
		End:      o.MaxDate,
	}
}
