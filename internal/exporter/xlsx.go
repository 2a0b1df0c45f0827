package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"mediapulse/pkg/contracts/domain"
)

// ContentTypeXLSX is the media type of exported workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportSheet is the name of the summary sheet
const ReportSheet = "Report"

// maxSheetName is the Excel sheet name limit
const maxSheetName = 31

// WriteWorkbook writes a Report sheet followed by one sheet per view.
// report may be nil.
func WriteWorkbook(w io.Writer, result *domain.Result, report *domain.IngestReport) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	f.SetSheetName(f.GetSheetName(0), ReportSheet)
	if err := writeReportSheet(f, bold, result, report); err != nil {
		return err
	}

	for _, view := range result.Views {
		if err := writeViewSheet(f, bold, view); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the workbook to a file, creating its directory
func SaveWorkbook(path string, result *domain.Result, report *domain.IngestReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteWorkbook(file, result, report); err != nil {
		return err
	}

	slog.Info("Workbook written",
		slog.String("file_path", path),
		slog.Int("views", len(result.Views)))
	return nil
}

func writeViewSheet(f *excelize.File, bold int, view domain.View) error {
	name := sheetName(view)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}

	headers, _ := viewTable(view)
	if err := f.SetSheetRow(name, "A1", &[]interface{}{headers[0], headers[1]}); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", "B1", bold); err != nil {
		return err
	}

	for i, r := range view.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &[]interface{}{r.Key, r.Value}); err != nil {
			return err
		}
	}

	return f.SetColWidth(name, "A", "B", 24)
}

func writeReportSheet(f *excelize.File, bold int, result *domain.Result, report *domain.IngestReport) error {
	rows := [][]interface{}{
		{"Filter"},
		{"Platform", platformLabel(result.Filter)},
		{"Start", formatDate(result.Filter.Start)},
		{"End", formatDate(result.Filter.End)},
		{"Rows in dataset", result.TotalRows},
		{"Rows after filter", result.FilteredRows},
		{},
	}

	if report != nil {
		rows = append(rows,
			[]interface{}{"Ingestion"},
			[]interface{}{"Source rows", report.SourceRows},
			[]interface{}{"Retained rows", report.RetainedRows},
			[]interface{}{"Dropped invalid dates", report.DroppedInvalidDates},
			[]interface{}{"Defaulted engagements", report.DefaultedEngagements},
			[]interface{}{"Missing fields", formatList(report.MissingFields)},
			[]interface{}{},
			[]interface{}{"Issue", "Field", "Count", "Message"},
		)
		for _, is := range report.Issues {
			rows = append(rows, []interface{}{string(is.Kind), is.Field, is.Count, is.Message})
		}
		rows = append(rows, []interface{}{})
	}

	if len(result.Skipped) > 0 {
		rows = append(rows, []interface{}{"Skipped view", "Missing fields"})
		for _, s := range result.Skipped {
			rows = append(rows, []interface{}{string(s.Kind), formatList(s.MissingFields)})
		}
		rows = append(rows, []interface{}{})
	}

	for _, note := range result.Notes {
		rows = append(rows, []interface{}{"Note", note})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(ReportSheet, cell, &row); err != nil {
			return err
		}
		if len(row) == 1 || row[0] == "Issue" || row[0] == "Skipped view" {
			if err := f.SetCellStyle(ReportSheet, cell, cell, bold); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(ReportSheet, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(ReportSheet, "D", "D", 60)
}

func sheetName(view domain.View) string {
	name := view.Title
	if name == "" {
		name = string(view.Kind)
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

func platformLabel(sel domain.FilterSelection) string {
	if !sel.PlatformSelected() {
		return domain.PlatformAll
	}
	return sel.Platform
}
