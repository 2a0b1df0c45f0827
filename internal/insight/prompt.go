package insight

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"mediapulse/pkg/contracts/domain"
)

// TrendContextRows is how many of the latest trend rows are sent as context
const TrendContextRows = 10

const systemPrompt = "You are a media intelligence strategist. Reply with exactly three bullet points. " +
	"Each bullet must be an actionable recommendation for the brand, not a description of the data."

func userPrompt(title, table string) string {
	return fmt.Sprintf("Based on the data for the chart '%s', with this context:\n%s\n\n"+
		"Give three relevant strategic insights as bullet points.", title, table)
}

// FormatTable renders a view as a plain, column-aligned text table with a
// header and no index. The engagement trend is limited to its latest rows.
func FormatTable(view domain.View) string {
	rows := view.Rows
	if view.Kind == domain.ViewEngagementTrend && len(rows) > TrendContextRows {
		rows = rows[len(rows)-TrendContextRows:]
	}

	keyLabel, valueLabel := view.KeyLabel, view.ValueLabel
	if keyLabel == "" {
		keyLabel = "Key"
	}
	if valueLabel == "" {
		valueLabel = "Value"
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t%s\t\n", keyLabel, valueLabel)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.Key, formatValue(r.Value))
	}
	_ = tw.Flush()

	return strings.TrimRight(b.String(), "\n")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
