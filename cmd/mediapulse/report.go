package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mediapulse/internal/app"
	"mediapulse/internal/charts"
	"mediapulse/internal/config"
	"mediapulse/internal/exporter"
	"mediapulse/internal/infrastructure"
	"mediapulse/internal/ingest"
	"mediapulse/internal/pipeline"
	"mediapulse/internal/validation"
	"mediapulse/pkg/contracts/domain"
)

type reportOptions struct {
	file     string
	platform string
	start    string
	end      string
	insights bool
	xlsx     string
	charts   string
}

func newReportCmd(cfgFile *string) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the ingest report and dashboard views of a file",
		Example: `  mediapulse report --file export.csv
  mediapulse report --file export.xlsx --platform Twitter --start 2024-01-01 --end 2024-01-31 --insights
  mediapulse report --file export.csv --xlsx out/dashboard.xlsx --charts out/charts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runReport(cmd.Context(), cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "CSV or XLSX file to analyze")
	cmd.Flags().StringVar(&opts.platform, "platform", "", "only rows of this platform (default: All)")
	cmd.Flags().StringVar(&opts.start, "start", "", "first day to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.end, "end", "", "last day to include, YYYY-MM-DD")
	cmd.Flags().BoolVar(&opts.insights, "insights", false, "generate an AI insight per view")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "write the views and ingest report to this workbook")
	cmd.Flags().StringVar(&opts.charts, "charts", "", "write one PNG chart per view into this directory")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runReport(ctx context.Context, cfg *config.Config, opts reportOptions, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	// stdout carries the report; logs go to stderr
	logger := infrastructure.NewLogger(errOut, cfg.Logging)
	logger.DebugContext(ctx, "report started", slog.String("file", opts.file))

	sel, err := parseSelection(opts)
	if err != nil {
		return err
	}

	files := validation.NewFileValidator(logger)
	if err := files.ValidateInputFile(opts.file); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	if opts.xlsx != "" {
		if err := files.ValidateOutputFile(opts.xlsx); err != nil {
			return err
		}
	}
	if opts.charts != "" {
		if err := files.ValidateOutputDirectory(opts.charts); err != nil {
			return err
		}
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	ds, report, err := ingest.IngestFile(opts.file, f)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", opts.file, err)
	}

	result := pipeline.Run(ds, sel)

	var insights []domain.Insight
	if opts.insights {
		svc, err := app.NewInsightService(cfg.Insight, logger)
		if err != nil {
			return err
		}
		insights = svc.InsightsFor(ctx, "", result.Views)
	}

	printReport(out, opts.file, report)
	printViews(out, result, insights)

	if opts.xlsx != "" {
		if err := exporter.SaveWorkbook(opts.xlsx, result, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nWorkbook written to %s\n", opts.xlsx)
	}

	if opts.charts != "" {
		written, err := saveCharts(opts.charts, result.Views)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d chart(s) written to %s\n", written, opts.charts)
	}

	return nil
}

func parseSelection(opts reportOptions) (domain.FilterSelection, error) {
	sel := domain.FilterSelection{Platform: strings.TrimSpace(opts.platform)}

	parse := func(flag, value string) (*time.Time, error) {
		if value == "" {
			return nil, nil
		}
		t, err := time.Parse(domain.DateLayout, value)
		if err != nil {
			return nil, fmt.Errorf("--%s must be a date in YYYY-MM-DD format, got %q", flag, value)
		}
		return &t, nil
	}

	var err error
	if sel.Start, err = parse("start", opts.start); err != nil {
		return sel, err
	}
	if sel.End, err = parse("end", opts.end); err != nil {
		return sel, err
	}
	if sel.Start != nil && sel.End != nil && sel.End.Before(*sel.Start) {
		return sel, errors.New("--end must not be before --start")
	}
	return sel, nil
}

func printReport(w io.Writer, file string, report *domain.IngestReport) {
	fmt.Fprintf(w, "Ingest report for %s\n", file)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Source rows\t%d\n", report.SourceRows)
	fmt.Fprintf(tw, "  Retained rows\t%d\n", report.RetainedRows)
	fmt.Fprintf(tw, "  Dropped (invalid date)\t%d\n", report.DroppedInvalidDates)
	fmt.Fprintf(tw, "  Defaulted engagements\t%d\n", report.DefaultedEngagements)
	if len(report.MissingFields) > 0 {
		fmt.Fprintf(tw, "  Missing fields\t%s\n", strings.Join(report.MissingFields, ", "))
	}
	tw.Flush()

	for _, issue := range report.Issues {
		fmt.Fprintf(w, "  ! %s (%s): %s\n", issue.Kind, issue.Field, issue.Message)
	}
}

func printViews(w io.Writer, result *domain.Result, insights []domain.Insight) {
	fmt.Fprintf(w, "\nFiltered rows: %d of %d\n", result.FilteredRows, result.TotalRows)
	for _, note := range result.Notes {
		fmt.Fprintf(w, "Note: %s\n", note)
	}

	byKind := make(map[domain.ViewKind]domain.Insight, len(insights))
	for _, in := range insights {
		byKind[in.Kind] = in
	}

	for _, view := range result.Views {
		fmt.Fprintf(w, "\n== %s ==\n", view.Title)
		if view.Empty() {
			fmt.Fprintln(w, "(no data)")
		} else {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "%s\t%s\t\n", view.KeyLabel, view.ValueLabel)
			for _, row := range view.Rows {
				fmt.Fprintf(tw, "%s\t%s\t\n", row.Key, formatValue(row.Value))
			}
			tw.Flush()
		}

		if in, ok := byKind[view.Kind]; ok {
			fmt.Fprintf(w, "\nInsight:\n%s\n", in.Text)
		}
	}

	for _, skipped := range result.Skipped {
		fmt.Fprintf(w, "\n== %s == skipped, missing %s\n", skipped.Kind, strings.Join(skipped.MissingFields, ", "))
	}
}

// saveCharts writes <dir>/<view>.png for every view with rows. dir must exist.
func saveCharts(dir string, views []domain.View) (int, error) {
	written := 0
	for _, view := range views {
		if view.Empty() {
			continue
		}
		path := filepath.Join(dir, string(view.Kind)+".png")
		f, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("failed to create %s: %w", path, err)
		}
		err = charts.Render(f, view)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return written, fmt.Errorf("failed to render %s: %w", view.Kind, err)
		}
		written++
	}
	return written, nil
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
