package ingest

import (
	"io"

	"github.com/xuri/excelize/v2"

	"mediapulse/pkg/contracts/domain"
)

// IngestXLSX reads the first worksheet that has a header row. The first
// non-blank row is the header; blank rows are skipped.
func IngestXLSX(r io.Reader) (*domain.Dataset, *domain.IngestReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, parseErr(0, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, parseErr(0, err)
		}

		var header []string
		var data [][]string
		for _, row := range rows {
			if blankRow(row) {
				continue
			}
			if header == nil {
				header = row
				continue
			}
			// trailing empty cells are trimmed per row, so widths vary
			for len(header) < len(row) {
				header = append(header, "")
			}
			data = append(data, row)
		}

		if header != nil {
			ds, report := build(header, data)
			return ds, report, nil
		}
	}

	return nil, nil, parseErr(0, ErrNoHeader)
}
