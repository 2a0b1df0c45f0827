// Package exporter writes dashboard results to spreadsheet formats.
//
// WriteViewCSV writes a single view as CSV with a UTF-8 BOM so spreadsheet
// tools detect the encoding. WriteWorkbook writes every view of a result to its
// own XLSX sheet, preceded by a Report sheet describing the ingestion and the
// active filter.
//
// Example usage:
//
//	res := pipeline.Run(ds, sel)
//	if err := exporter.WriteWorkbook(w, res, report); err != nil {
//	    return err
//	}
package exporter
