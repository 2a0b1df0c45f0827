// Package ingest turns an uploaded media intelligence export into a normalized
// dataset that the rest of the application treats as the single source of truth.
//
// # Steps
//
// Ingestion runs the same fixed sequence for every input format:
//
//  1. Column names are normalized (lower-case, separators collapsed to "_",
//     other punctuation removed).
//  2. Common spelling variants are mapped onto canonical names
//     ("engagement" becomes "engagements").
//  3. Required fields that are absent are reported, never fatal.
//  4. Dates are parsed; rows with an unparseable date are dropped.
//  5. Engagement counts are parsed; unparseable values become 0.
//
// # Usage
//
//	ds, report, err := ingest.Ingest(file)
//	if err != nil {
//	    var perr *ingest.ParseError
//	    if errors.As(err, &perr) {
//	        // the input is not a table at all
//	    }
//	}
//	fmt.Println(report.DroppedInvalidDates, report.MissingFields)
//
// Workbooks go through IngestXLSX, and IngestFile picks the reader from the file
// extension.
//
// # Errors
//
// Only unreadable input fails: malformed CSV quoting, a data row wider than the
// header, invalid UTF-8 or a missing header row. Every other anomaly is absorbed
// into a default and recorded in the IngestReport.
package ingest
