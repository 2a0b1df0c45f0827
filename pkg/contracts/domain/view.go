package domain

// ViewKind identifies one of the aggregate views
type ViewKind string

const (
	ViewSentimentBreakdown ViewKind = "sentiment_breakdown"
	ViewEngagementTrend    ViewKind = "engagement_trend"
	ViewPlatformEngagement ViewKind = "platform_engagement"
	ViewMediaTypeMix       ViewKind = "media_type_mix"
	ViewTopLocations       ViewKind = "top_locations"
)

// ViewKinds lists the views in dashboard order
var ViewKinds = []ViewKind{
	ViewSentimentBreakdown,
	ViewEngagementTrend,
	ViewPlatformEngagement,
	ViewMediaTypeMix,
	ViewTopLocations,
}

// Valid reports whether k names a known view
func (k ViewKind) Valid() bool {
	for _, v := range ViewKinds {
		if v == k {
			return true
		}
	}
	return false
}

// ChartType is the chart a view is drawn with
type ChartType string

const (
	ChartPie  ChartType = "pie"
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
)

// ViewRow is one key/value pair of an aggregate view
type ViewRow struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// View is a small derived table driving one chart and one insight call
type View struct {
	Kind       ViewKind  `json:"kind"`
	Title      string    `json:"title"`
	Chart      ChartType `json:"chart"`
	KeyLabel   string    `json:"key_label"`
	ValueLabel string    `json:"value_label"`
	Rows       []ViewRow `json:"rows"`
}

// Empty reports whether the view has no rows
func (v View) Empty() bool {
	return len(v.Rows) == 0
}

// SkippedView records a view that could not be computed
type SkippedView struct {
	Kind          ViewKind `json:"kind"`
	MissingFields []string `json:"missing_fields"`
}

// Result is the output of one pipeline pass
type Result struct {
	Filter       FilterSelection `json:"filter"`
	TotalRows    int             `json:"total_rows"`
	FilteredRows int             `json:"filtered_rows"`
	Empty        bool            `json:"empty"`
	Views        []View          `json:"views"`
	Skipped      []SkippedView   `json:"skipped,omitempty"`
	Notes        []string        `json:"notes,omitempty"`
}

// View returns the computed view of the given kind
func (r *Result) View(kind ViewKind) (View, bool) {
	for _, v := range r.Views {
		if v.Kind == kind {
			return v, true
		}
	}
	return View{}, false
}

// IsSkipped reports whether the given view was skipped for missing fields
func (r *Result) IsSkipped(kind ViewKind) bool {
	for _, s := range r.Skipped {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// Insight is the generated text attached to a view
type Insight struct {
	Kind     ViewKind `json:"kind"`
	Text     string   `json:"text"`
	Fallback bool     `json:"fallback"`
	Cached   bool     `json:"cached"`
	Error    string   `json:"error,omitempty"`
}
