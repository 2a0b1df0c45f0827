package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"mediapulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to w
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteViewCSV writes one view as a two-column CSV with its labels as header
func WriteViewCSV(w io.Writer, view domain.View) error {
	headers, records := viewTable(view)
	return WriteCSV(w, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

func viewTable(view domain.View) ([]string, [][]string) {
	keyLabel, valueLabel := view.KeyLabel, view.ValueLabel
	if keyLabel == "" {
		keyLabel = "key"
	}
	if valueLabel == "" {
		valueLabel = "value"
	}

	records := make([][]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		records = append(records, []string{r.Key, formatValue(r.Value)})
	}
	return []string{keyLabel, valueLabel}, records
}
