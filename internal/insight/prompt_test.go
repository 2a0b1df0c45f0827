package insight

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediapulse/pkg/contracts/domain"
)

func TestFormatTable(t *testing.T) {
	out := FormatTable(platformView())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, []string{"Platform", "Engagements"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"X", "10"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"Y", "2"}, strings.Fields(lines[2]))

	// right aligned columns share a width
	assert.Equal(t, len(lines[0]), len(lines[1]))
}

func TestFormatTable_TrendUsesLatestRows(t *testing.T) {
	view := domain.View{Kind: domain.ViewEngagementTrend, KeyLabel: "Date", ValueLabel: "Engagements"}
	for d := 1; d <= 15; d++ {
		view.Rows = append(view.Rows, domain.ViewRow{Key: fmt.Sprintf("2024-01-%02d", d), Value: float64(d)})
	}

	lines := strings.Split(FormatTable(view), "\n")
	require.Len(t, lines, TrendContextRows+1)
	assert.Equal(t, []string{"2024-01-06", "6"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2024-01-15", "15"}, strings.Fields(lines[len(lines)-1]))
}

func TestFormatTable_Values(t *testing.T) {
	view := domain.View{Rows: []domain.ViewRow{{Key: "a", Value: 1.5}, {Key: "b", Value: 1234567}}}
	out := FormatTable(view)
	assert.Contains(t, out, "1.5")
	assert.Contains(t, out, "1234567")
	assert.Contains(t, out, "Key")
}

func TestUserPrompt(t *testing.T) {
	p := userPrompt("Media Type Mix", "Media Type  Count")
	assert.Contains(t, p, "'Media Type Mix'")
	assert.Contains(t, p, "Media Type  Count")
	assert.Contains(t, systemPrompt, "three bullet points")
}
