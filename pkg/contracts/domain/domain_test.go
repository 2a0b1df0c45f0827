package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testDataset() *Dataset {
	return &Dataset{
		Columns: []string{FieldDate, FieldPlatform},
		Records: []Record{
			{Values: map[string]string{FieldPlatform: " Twitter "}, Date: day("2024-01-03").Add(15 * time.Hour)},
			{Values: map[string]string{FieldPlatform: "Instagram"}, Date: day("2024-01-01")},
			{Values: map[string]string{FieldPlatform: "Twitter"}, Date: day("2024-01-02")},
			{Values: map[string]string{FieldPlatform: ""}, Date: day("2024-01-02")},
		},
	}
}

func TestDataset_Distinct(t *testing.T) {
	ds := testDataset()

	assert.Equal(t, []string{"Twitter", "Instagram"}, ds.Distinct(FieldPlatform))
	assert.Nil(t, ds.Distinct(FieldLocation))
}

func TestDataset_DateRange(t *testing.T) {
	first, last, ok := testDataset().DateRange()
	require.True(t, ok)
	assert.Equal(t, day("2024-01-01"), first)
	assert.Equal(t, day("2024-01-03"), last, "time of day is dropped")

	_, _, ok = (&Dataset{Columns: []string{FieldDate}}).DateRange()
	assert.False(t, ok)

	_, _, ok = (&Dataset{Columns: []string{FieldPlatform}, Records: []Record{{}}}).DateRange()
	assert.False(t, ok)
}

func TestDataset_HasAll(t *testing.T) {
	ds := testDataset()

	ok, missing := ds.HasAll(FieldDate, FieldPlatform)
	assert.True(t, ok)
	assert.Empty(t, missing)

	ok, missing = ds.HasAll(FieldLocation, FieldDate, FieldEngagements)
	assert.False(t, ok)
	assert.Equal(t, []string{FieldLocation, FieldEngagements}, missing)

	var nilDS *Dataset
	assert.False(t, nilDS.Has(FieldDate))
	assert.Zero(t, nilDS.Len())
}

func TestOptionsFor(t *testing.T) {
	opts := OptionsFor(testDataset())

	assert.Equal(t, []string{PlatformAll, "Twitter", "Instagram"}, opts.Platforms)
	require.NotNil(t, opts.MinDate)
	require.NotNil(t, opts.MaxDate)

	sel := opts.Defaults()
	assert.Equal(t, PlatformAll, sel.Platform)
	assert.False(t, sel.PlatformSelected())
	assert.True(t, sel.HasDateRange())
	assert.Equal(t, day("2024-01-01"), *sel.Start)
}

func TestFilterSelection_PlatformSelected(t *testing.T) {
	tests := []struct {
		platform string
		want     bool
	}{
		{"", false},
		{"  ", false},
		{"All", false},
		{"all", true},
		{"ALL", true},
		{"Twitter", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FilterSelection{Platform: tt.platform}.PlatformSelected(), "platform %q", tt.platform)
	}
}

func TestViewKind_Valid(t *testing.T) {
	for _, k := range ViewKinds {
		assert.True(t, k.Valid())
	}
	assert.False(t, ViewKind("word_cloud").Valid())
}

func TestResult_Lookup(t *testing.T) {
	r := &Result{
		Views:   []View{{Kind: ViewSentimentBreakdown, Rows: []ViewRow{{Key: "Positive", Value: 2}}}},
		Skipped: []SkippedView{{Kind: ViewTopLocations, MissingFields: []string{FieldLocation}}},
	}

	v, ok := r.View(ViewSentimentBreakdown)
	require.True(t, ok)
	assert.False(t, v.Empty())

	_, ok = r.View(ViewTopLocations)
	assert.False(t, ok)
	assert.True(t, r.IsSkipped(ViewTopLocations))
	assert.False(t, r.IsSkipped(ViewSentimentBreakdown))
}

func TestIngestReport_AddIssue(t *testing.T) {
	var r IngestReport
	r.AddIssue(IssueValueInvalid, FieldDate, 2, "2 rows dropped")

	require.Len(t, r.Issues, 1)
	assert.Equal(t, Issue{Kind: IssueValueInvalid, Field: FieldDate, Count: 2, Message: "2 rows dropped"}, r.Issues[0])
}
