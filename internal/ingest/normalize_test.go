package ingest

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"

	"mediapulse/pkg/contracts/domain"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already normalized", "engagements", "engagements"},
		{"title case with space", "Media Type", "media_type"},
		{"surrounding whitespace", "  Engagements ", "engagements"},
		{"leading space is trimmed, not an underscore", " date", "date"},
		{"dots", "Post.Date", "post_date"},
		{"hyphen", "media-type", "media_type"},
		{"mixed separator run", "a  -  b", "a_b"},
		{"punctuation dropped", "Location (City)", "location_city"},
		{"percent dropped", "Share%", "share"},
		{"byte order mark", "\ufeffDate", "date"},
		{"digits kept", "Q3 Reach", "q3_reach"},
		{"unicode letters kept", "Café", "café"},
		{"underscore kept", "media__type", "media__type"},
		{"only punctuation", "#!?", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumn(tt.raw))
		})
	}
}

func TestNormalizeColumn_Idempotent(t *testing.T) {
	inputs := []string{
		"Media Type", "a_-b", "a _b", "Post.Date.", " x ", "Ünïcode Name", "A--B..C", "\ufeff Sentiment",
	}
	for _, in := range inputs {
		once := NormalizeColumn(in)
		assert.Equal(t, once, NormalizeColumn(once), "input %q", in)
	}
}

func TestNormalizeColumn_Charset(t *testing.T) {
	inputs := []string{"Hello World!", "E-mail Address", "Çity/Town", "Tab\tSeparated", "50% Off"}
	for _, in := range inputs {
		for _, r := range NormalizeColumn(in) {
			ok := r == '_' || unicode.IsDigit(r) || (unicode.IsLetter(r) && !unicode.IsUpper(r))
			assert.True(t, ok, "rune %q in normalized %q", r, in)
		}
	}
}

func TestNormalizeHeader_Collisions(t *testing.T) {
	report := &domain.IngestReport{}
	s := normalizeHeader([]string{"Platform", "Date", "platform "}, report)

	assert.Equal(t, []string{"platform", "date", "platform"}, s.names)
	assert.Equal(t, []string{"platform", "date"}, s.columns)
	if assert.Len(t, report.Collisions, 1) {
		assert.Equal(t, "platform", report.Collisions[0].Name)
		assert.Equal(t, []string{"Platform", "platform "}, report.Collisions[0].RawColumns)
	}
	if assert.Len(t, report.Issues, 1) {
		assert.Equal(t, domain.IssueColumnCollision, report.Issues[0].Kind)
		assert.Equal(t, 2, report.Issues[0].Count)
	}
}

func TestNormalizeHeader_Aliases(t *testing.T) {
	t.Run("alias applied when target missing", func(t *testing.T) {
		report := &domain.IngestReport{}
		s := normalizeHeader([]string{"Engagement", "Media", "Sentiments"}, report)

		assert.Equal(t, []string{"engagements", "media_type", "sentiment"}, s.columns)
		assert.Equal(t, []domain.AliasApplied{
			{From: "engagement", To: "engagements"},
			{From: "sentiments", To: "sentiment"},
			{From: "media", To: "media_type"},
		}, report.Aliases)
		assert.Equal(t, "engagements", report.Columns[0].Normalized)
	})

	t.Run("alias skipped when target exists", func(t *testing.T) {
		report := &domain.IngestReport{}
		s := normalizeHeader([]string{"engagement", "engagements"}, report)

		assert.Equal(t, []string{"engagement", "engagements"}, s.columns)
		assert.Empty(t, report.Aliases)
	})

	t.Run("first matching alias wins", func(t *testing.T) {
		report := &domain.IngestReport{}
		s := normalizeHeader([]string{"Total Engagements", "Engagement"}, report)

		assert.Equal(t, []string{"total_engagements", "engagements"}, s.columns)
		assert.Len(t, report.Aliases, 1)
	})
}

func TestNormalizeHeader_Unnamed(t *testing.T) {
	report := &domain.IngestReport{}
	s := normalizeHeader([]string{"date", "", "???"}, report)
	assert.Equal(t, []string{"date", "unnamed_1", "unnamed_2"}, s.columns)
}
