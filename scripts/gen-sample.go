//go:build ignore

// gen-sample.go writes a synthetic media-intelligence export for demos and
// load checks.
// Usage: go run scripts/gen-sample.go [-rows N] [-days N] [-seed N] [-out file.csv|file.xlsx]
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	header     = []string{"Date", "Platform", "Sentiment", "Location", "Engagements", "Media Type"}
	platforms  = []string{"Twitter", "Instagram", "Facebook", "TikTok", "YouTube", "News"}
	sentiments = []string{"Positive", "Neutral", "Negative"}
	locations  = []string{"Jakarta", "Bandung", "Surabaya", "Medan", "Makassar", "Denpasar", "Yogyakarta", "Semarang"}
	mediaTypes = []string{"Text", "Image", "Video", "Link"}
)

func main() {
	rows := flag.Int("rows", 500, "Number of data rows")
	days := flag.Int("days", 30, "Number of days the dates span")
	seed := flag.Int64("seed", 1, "Random seed")
	out := flag.String("out", "sample_media.csv", "Output file (.csv or .xlsx)")
	invalid := flag.Float64("invalid", 0.02, "Share of rows with an unparseable date")
	flag.Parse()

	if *rows <= 0 || *days <= 0 {
		log.Fatal("-rows and -days must be positive")
	}

	records := generate(rand.New(rand.NewSource(*seed)), *rows, *days, *invalid)

	var err error
	switch strings.ToLower(filepath.Ext(*out)) {
	case ".xlsx":
		err = writeXLSX(*out, records)
	case ".csv":
		err = writeCSV(*out, records)
	default:
		log.Fatalf("Unsupported output extension: %s", filepath.Ext(*out))
	}
	if err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	fmt.Printf("Wrote %d rows to %s\n", len(records), *out)
}

func generate(rng *rand.Rand, rows, days int, invalid float64) [][]string {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([][]string, 0, rows)

	for i := 0; i < rows; i++ {
		date := start.AddDate(0, 0, rng.Intn(days)).Format("2006-01-02")
		if rng.Float64() < invalid {
			date = "not a date"
		}
		// skewed so the top-locations view has a clear ranking
		location := locations[int(float64(len(locations))*rng.Float64()*rng.Float64())]

		records = append(records, []string{
			date,
			platforms[rng.Intn(len(platforms))],
			sentiments[rng.Intn(len(sentiments))],
			location,
			strconv.Itoa(int(rng.ExpFloat64() * 250)),
			mediaTypes[rng.Intn(len(mediaTypes))],
		})
	}
	return records
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func writeXLSX(path string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rec
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
