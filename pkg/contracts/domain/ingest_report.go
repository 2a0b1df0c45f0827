package domain

// IssueKind classifies a non-fatal ingestion anomaly
type IssueKind string

const (
	IssueFieldMissing    IssueKind = "field_missing"
	IssueValueInvalid    IssueKind = "value_invalid"
	IssueColumnCollision IssueKind = "column_collision"
)

// Issue is one non-fatal anomaly absorbed during ingestion
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Field   string    `json:"field"`
	Count   int       `json:"count,omitempty"`
	Message string    `json:"message"`
}

// ColumnMapping records how a raw header normalized
type ColumnMapping struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// AliasApplied records a canonical-alias rename
type AliasApplied struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ColumnCollision records raw headers that normalized to the same name.
// The last raw column wins.
type ColumnCollision struct {
	Name       string   `json:"name"`
	RawColumns []string `json:"raw_columns"`
}

// IngestReport describes what ingestion did to the input
type IngestReport struct {
	SourceRows           int               `json:"source_rows"`
	RetainedRows         int               `json:"retained_rows"`
	Columns              []ColumnMapping   `json:"columns"`
	Aliases              []AliasApplied    `json:"aliases,omitempty"`
	Collisions           []ColumnCollision `json:"collisions,omitempty"`
	MissingFields        []string          `json:"missing_fields,omitempty"`
	DroppedInvalidDates  int               `json:"dropped_invalid_dates"`
	DefaultedEngagements int               `json:"defaulted_engagements"`
	Issues               []Issue           `json:"issues,omitempty"`
}

// AddIssue appends an issue to the report
func (r *IngestReport) AddIssue(kind IssueKind, field string, count int, message string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Field: field, Count: count, Message: message})
}
