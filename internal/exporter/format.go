package exporter

import (
	"strconv"
	"strings"
	"time"

	"mediapulse/pkg/contracts/domain"
)

// formatValue formats a view value without trailing zeros
func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
