package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"mediapulse/pkg/contracts/domain"
)

// IngestFile reads an upload, choosing the reader from the file extension.
// Files without an extension are read as CSV.
func IngestFile(name string, r io.Reader) (*domain.Dataset, *domain.IngestReport, error) {
	if !Supported(name) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, strings.ToLower(filepath.Ext(name)))
	}
	if IsWorkbook(name) {
		return IngestXLSX(r)
	}
	return Ingest(r)
}

// Supported reports whether name has an extension IngestFile can read
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", "", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// IsWorkbook reports whether name is read as an xlsx workbook
func IsWorkbook(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// build materializes the normalized dataset from a header and its data rows
func build(header []string, rows [][]string) (*domain.Dataset, *domain.IngestReport) {
	report := &domain.IngestReport{SourceRows: len(rows)}
	sch := normalizeHeader(header, report)

	for _, field := range domain.RequiredFields {
		if sch.has(field) {
			continue
		}
		report.MissingFields = append(report.MissingFields, field)
		report.AddIssue(domain.IssueFieldMissing, field, 0,
			fmt.Sprintf("required field %q is missing; views using it are skipped", field))
	}

	hasDate := sch.has(domain.FieldDate)
	hasEngagements := sch.has(domain.FieldEngagements)

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		rec := domain.Record{Values: make(map[string]string, len(sch.columns))}
		// later positions overwrite earlier ones on collisions
		for i, name := range sch.names {
			var v string
			if i < len(row) {
				v = row[i]
			}
			rec.Values[name] = v
		}

		if hasDate {
			t, ok := ParseDate(rec.Values[domain.FieldDate])
			if !ok {
				report.DroppedInvalidDates++
				continue
			}
			rec.Date = t
		}

		if hasEngagements {
			v, ok := ParseEngagements(rec.Values[domain.FieldEngagements])
			if !ok {
				report.DefaultedEngagements++
			}
			rec.Engagements = v
		}

		records = append(records, rec)
	}

	if report.DroppedInvalidDates > 0 {
		report.AddIssue(domain.IssueValueInvalid, domain.FieldDate, report.DroppedInvalidDates,
			fmt.Sprintf("%d rows dropped for a missing or unparseable date", report.DroppedInvalidDates))
	}
	if report.DefaultedEngagements > 0 {
		report.AddIssue(domain.IssueValueInvalid, domain.FieldEngagements, report.DefaultedEngagements,
			fmt.Sprintf("%d engagement values were missing or invalid and set to 0", report.DefaultedEngagements))
	}

	report.RetainedRows = len(records)
	return &domain.Dataset{Columns: sch.columns, Records: records}, report
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
