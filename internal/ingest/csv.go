package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"mediapulse/pkg/contracts/domain"
)

// Ingest reads a CSV export with a header row and returns the normalized
// dataset with its report. It fails with a *ParseError when the input is not
// a table.
func Ingest(r io.Reader) (*domain.Dataset, *domain.IngestReport, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, nil, err
	}
	ds, report := build(header, rows)
	return ds, report, nil
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	br := bufio.NewReader(r)
	// Spreadsheet tools prepend a BOM to UTF-8 exports
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	// quotes inside unquoted cells are literal text
	reader.LazyQuotes = true

	var header []string
	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, nil, parseErr(perr.Line, perr.Err)
			}
			return nil, nil, parseErr(0, err)
		}

		line, _ := reader.FieldPos(0)
		for _, field := range record {
			if !utf8.ValidString(field) {
				return nil, nil, parseErr(line, errors.New("invalid UTF-8"))
			}
		}

		if header == nil {
			if blankRow(record) {
				return nil, nil, parseErr(line, ErrNoHeader)
			}
			header = record
			continue
		}
		if len(record) > len(header) {
			return nil, nil, parseErr(line,
				fmt.Errorf("row has %d fields, header has %d", len(record), len(header)))
		}
		rows = append(rows, record)
	}

	if header == nil {
		return nil, nil, parseErr(0, ErrNoHeader)
	}
	return header, rows, nil
}
