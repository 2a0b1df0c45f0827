package testutil

import (
	"fmt"
	"strings"
)

// MediaHeader is the canonical header of a media-intelligence export
var MediaHeader = []string{"Date", "Platform", "Sentiment", "Location", "Engagements", "Media Type"}

// MediaRow is one row of a media-intelligence export. Values are written as
// given so tests can feed malformed cells.
type MediaRow struct {
	Date        string
	Platform    string
	Sentiment   string
	Location    string
	Engagements string
	MediaType   string
}

// MediaCSV renders rows under MediaHeader as CSV text
func MediaCSV(rows ...MediaRow) string {
	var b strings.Builder
	b.WriteString(strings.Join(MediaHeader, ","))
	b.WriteByte('\n')
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s\n",
			r.Date, r.Platform, r.Sentiment, r.Location, r.Engagements, r.MediaType)
	}
	return b.String()
}

// SampleMediaRows spans three days and two platforms with one row whose date
// cannot be parsed.
func SampleMediaRows() []MediaRow {
	return []MediaRow{
		{"2024-01-01", "Twitter", "Positive", "Jakarta", "10", "Text"},
		{"2024-01-02", "Instagram", "Negative", "Bandung", "5", "Image"},
		{"2024-01-03", "Twitter", "Positive", "Jakarta", "7", "Video"},
		{"not-a-date", "Twitter", "Neutral", "Surabaya", "100", "Text"},
	}
}

// SampleMediaCSV returns SampleMediaRows as CSV text
func SampleMediaCSV() string {
	return MediaCSV(SampleMediaRows()...)
}
