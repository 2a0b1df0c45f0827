package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"

	"mediapulse/internal/charts"
	"mediapulse/internal/exporter"
	"mediapulse/internal/ingest"
	"mediapulse/internal/pipeline"
	"mediapulse/internal/validation"
	"mediapulse/pkg/contracts/domain"
	"mediapulse/pkg/contracts/events"
)

// EventDatasetLoaded is published after a dataset is ingested
const EventDatasetLoaded = events.TypeDatasetLoaded

// InsightProvider produces one insight per view
type InsightProvider interface {
	InsightsFor(ctx context.Context, datasetID string, views []domain.View) []domain.Insight
	Configured() bool
}

// EventPublisher broadcasts events to connected clients
type EventPublisher interface {
	Broadcast(messageType string, data interface{})
}

// IngestRecorder receives one observation per ingested upload
type IngestRecorder interface {
	RecordIngest(ctx context.Context, format string, report *domain.IngestReport, elapsed time.Duration)
}

// DashboardOptions configures a DashboardService
type DashboardOptions struct {
	MaxUploadBytes int64
	DatasetTTL     time.Duration
}

// DatasetSummary describes a stored dataset
type DatasetSummary struct {
	ID        string               `json:"id"`
	Filename  string               `json:"filename"`
	Columns   []string             `json:"columns"`
	Rows      int                  `json:"rows"`
	Report    *domain.IngestReport `json:"report"`
	Options   domain.FilterOptions `json:"options"`
	Cached    bool                 `json:"cached"`
	CreatedAt time.Time            `json:"created_at"`
}

// Dashboard is the payload of one dashboard request
type Dashboard struct {
	DatasetID string           `json:"dataset_id"`
	Result    *domain.Result   `json:"result"`
	Insights  []domain.Insight `json:"insights,omitempty"`
}

// dataset is one entry of the session store
type dataset struct {
	id        string
	key       string
	filename  string
	data      *domain.Dataset
	report    *domain.IngestReport
	options   domain.FilterOptions
	createdAt time.Time
}

// DashboardService owns the uploaded datasets and serves views over them
type DashboardService struct {
	datasets *cache.Cache // id -> *dataset
	byKey    *cache.Cache // content key -> id
	insights InsightProvider
	files    *validation.FileValidator
	events   EventPublisher
	recorder IngestRecorder
	opts     DashboardOptions
	logger   *slog.Logger
}

// NewDashboardService creates a dashboard service. insights may be nil, in
// which case dashboards never carry insights.
func NewDashboardService(opts DashboardOptions, insights InsightProvider, logger *slog.Logger) *DashboardService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.DatasetTTL <= 0 {
		opts.DatasetTTL = 2 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &DashboardService{
		datasets: cache.New(opts.DatasetTTL, 10*time.Minute),
		byKey:    cache.New(cache.NoExpiration, 0),
		insights: insights,
		files:    validation.NewFileValidator(logger),
		opts:     opts,
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
	s.datasets.OnEvicted(s.onEvicted)

	logger.Info("DashboardService initialized",
		slog.Int64("max_upload_bytes", opts.MaxUploadBytes),
		slog.Duration("dataset_ttl", opts.DatasetTTL),
		slog.Bool("insights_configured", insights != nil && insights.Configured()))

	return s
}

// SetEventPublisher sets where dataset events are broadcast
func (s *DashboardService) SetEventPublisher(p EventPublisher) {
	s.events = p
}

// SetRecorder sets the ingestion metrics recorder
func (s *DashboardService) SetRecorder(r IngestRecorder) {
	s.recorder = r
}

// DatasetCount returns the number of live datasets
func (s *DashboardService) DatasetCount() int {
	return s.datasets.ItemCount()
}

// Upload ingests an uploaded file. Uploading the same content again while the
// dataset is live returns the stored dataset with Cached set.
func (s *DashboardService) Upload(ctx context.Context, filename string, r io.Reader) (*DatasetSummary, error) {
	start := time.Now()

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, s.opts.MaxUploadBytes)
	}
	if len(data) == 0 {
		return nil, &ingest.ParseError{Err: ErrEmptyUpload}
	}

	format := fileFormat(filename)
	key := contentKey(format, data)

	if ds, ok := s.lookupKey(key); ok {
		// extend the lifetime of a dataset that is still in use
		s.datasets.SetDefault(ds.id, ds)
		s.logger.InfoContext(ctx, "Upload matched a live dataset",
			slog.String("dataset_id", ds.id),
			slog.String("filename", filename))
		summary := ds.summary()
		summary.Cached = true
		return summary, nil
	}

	parsed, report, err := s.ingest(filename, data)
	if err != nil {
		s.logger.WarnContext(ctx, "Upload rejected",
			slog.String("filename", filename),
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()))
		return nil, err
	}

	ds := &dataset{
		id:        uuid.NewString(),
		key:       key,
		filename:  filename,
		data:      parsed,
		report:    report,
		options:   domain.OptionsFor(parsed),
		createdAt: time.Now().UTC(),
	}
	s.datasets.SetDefault(ds.id, ds)
	s.byKey.SetDefault(key, ds.id)

	elapsed := time.Since(start)
	if s.recorder != nil {
		s.recorder.RecordIngest(ctx, format, report, elapsed)
	}

	s.logger.InfoContext(ctx, "Dataset ingested",
		slog.String("dataset_id", ds.id),
		slog.String("filename", filename),
		slog.String("format", format),
		slog.Int("source_rows", report.SourceRows),
		slog.Int("retained_rows", report.RetainedRows),
		slog.Int("dropped_invalid_dates", report.DroppedInvalidDates),
		slog.Int("defaulted_engagements", report.DefaultedEngagements),
		slog.Any("missing_fields", report.MissingFields),
		slog.Duration("elapsed", elapsed))

	summary := ds.summary()
	if s.events != nil {
		s.events.Broadcast(EventDatasetLoaded, summary)
	}
	return summary, nil
}

// Summary returns the summary of a stored dataset
func (s *DashboardService) Summary(ctx context.Context, id string) (*DatasetSummary, error) {
	ds, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return ds.summary(), nil
}

// Delete removes a stored dataset
func (s *DashboardService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	s.datasets.Delete(id)
	s.logger.InfoContext(ctx, "Dataset deleted", slog.String("dataset_id", id))
	return nil
}

// Dashboard filters a dataset and computes every view, optionally with one
// insight per view.
func (s *DashboardService) Dashboard(ctx context.Context, id string, sel domain.FilterSelection, withInsights bool) (*Dashboard, error) {
	ds, err := s.get(id)
	if err != nil {
		return nil, err
	}

	res := pipeline.Run(ds.data, sel)
	dash := &Dashboard{DatasetID: id, Result: res}

	if withInsights && s.insights != nil {
		dash.Insights = s.insights.InsightsFor(ctx, id, res.Views)
	}

	s.logger.DebugContext(ctx, "Dashboard computed",
		slog.String("dataset_id", id),
		slog.Int("filtered_rows", res.FilteredRows),
		slog.Int("views", len(res.Views)),
		slog.Int("skipped", len(res.Skipped)),
		slog.Bool("insights", len(dash.Insights) > 0))

	return dash, nil
}

// View returns one view of a filtered dataset
func (s *DashboardService) View(ctx context.Context, id string, sel domain.FilterSelection, kind domain.ViewKind) (domain.View, error) {
	if !kind.Valid() {
		return domain.View{}, fmt.Errorf("%w: %q", ErrViewNotFound, kind)
	}

	ds, err := s.get(id)
	if err != nil {
		return domain.View{}, err
	}

	res := pipeline.Run(ds.data, sel)
	for _, skipped := range res.Skipped {
		if skipped.Kind == kind {
			return domain.View{}, &SkippedViewError{Kind: kind, Missing: skipped.MissingFields}
		}
	}

	view, _ := res.View(kind)
	return view, nil
}

// Chart renders one view as a PNG
func (s *DashboardService) Chart(ctx context.Context, id string, sel domain.FilterSelection, kind domain.ViewKind, w io.Writer) error {
	view, err := s.View(ctx, id, sel, kind)
	if err != nil {
		return err
	}
	return charts.Render(w, view)
}

// ViewCSV writes one view as CSV
func (s *DashboardService) ViewCSV(ctx context.Context, id string, sel domain.FilterSelection, kind domain.ViewKind, w io.Writer) error {
	view, err := s.View(ctx, id, sel, kind)
	if err != nil {
		return err
	}
	return exporter.WriteViewCSV(w, view)
}

// Export writes every view of a filtered dataset and its ingest report as XLSX
func (s *DashboardService) Export(ctx context.Context, id string, sel domain.FilterSelection, w io.Writer) error {
	ds, err := s.get(id)
	if err != nil {
		return err
	}

	res := pipeline.Run(ds.data, sel)
	if err := exporter.WriteWorkbook(w, res, ds.report); err != nil {
		return fmt.Errorf("export dataset %s: %w", id, err)
	}
	return nil
}

// Filename returns the original filename of a stored dataset
func (s *DashboardService) Filename(id string) (string, error) {
	ds, err := s.get(id)
	if err != nil {
		return "", err
	}
	return ds.filename, nil
}

func (s *DashboardService) get(id string) (*dataset, error) {
	v, ok := s.datasets.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return v.(*dataset), nil
}

func (s *DashboardService) lookupKey(key string) (*dataset, bool) {
	id, ok := s.byKey.Get(key)
	if !ok {
		return nil, false
	}
	ds, err := s.get(id.(string))
	if err != nil {
		return nil, false
	}
	return ds, true
}

func (s *DashboardService) onEvicted(id string, v interface{}) {
	ds := v.(*dataset)
	if current, ok := s.byKey.Get(ds.key); ok && current.(string) == id {
		s.byKey.Delete(ds.key)
	}
	s.logger.Debug("Dataset evicted", slog.String("dataset_id", id))
}

func (ds *dataset) summary() *DatasetSummary {
	return &DatasetSummary{
		ID:        ds.id,
		Filename:  ds.filename,
		Columns:   ds.data.Columns,
		Rows:      ds.data.Len(),
		Report:    ds.report,
		Options:   ds.options,
		CreatedAt: ds.createdAt,
	}
}

func (s *DashboardService) ingest(filename string, data []byte) (*domain.Dataset, *domain.IngestReport, error) {
	if err := s.files.CheckContent(filename, data); err != nil {
		return nil, nil, err
	}
	return ingest.IngestFile(filename, bytes.NewReader(data))
}

// contentKey identifies an upload by format and bytes
func contentKey(format string, data []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func fileFormat(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "csv"
	}
	return ext
}
