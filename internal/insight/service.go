package insight

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"mediapulse/pkg/contracts/domain"
	"mediapulse/pkg/contracts/events"
)

const (
	// FallbackText replaces the insight whenever generation fails
	FallbackText = "Unable to generate an AI insight at this time."

	// NoDataText is shown for views without rows; no call is made
	NoDataText = "No data available for the current filter."

	// EventInsightReady is published once per finished insight
	EventInsightReady = events.TypeInsightReady
)

// Outcomes reported to the Recorder
const (
	OutcomeGenerated    = "generated"
	OutcomeCached       = "cached"
	OutcomeFallback     = "fallback"
	OutcomeUnconfigured = "unconfigured"
	OutcomeNoData       = "no_data"
)

// ErrNotConfigured means no generator was configured
var ErrNotConfigured = errors.New("insight generator is not configured")

// EventSink receives insight events. The WebSocket hub implements it.
type EventSink interface {
	Broadcast(messageType string, data interface{})
}

// Recorder receives one observation per insight request
type Recorder interface {
	RecordInsight(ctx context.Context, kind domain.ViewKind, outcome string, elapsed time.Duration)
}

// Options configures a Service
type Options struct {
	Timeout     time.Duration
	CacheTTL    time.Duration
	Concurrency int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Timeout:     30 * time.Second,
		CacheTTL:    time.Hour,
		Concurrency: 5,
	}
}

// Service produces one insight per view, caching successful texts by content
// key. It never returns an error: failures become the fallback text.
type Service struct {
	generator Generator
	cache     *cache.Cache
	opts      Options
	sink      EventSink
	recorder  Recorder
	logger    *slog.Logger
}

// NewService creates an insight service. A nil generator always falls back.
func NewService(generator Generator, opts Options, logger *slog.Logger) *Service {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		generator: generator,
		cache:     cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		opts:      opts,
		logger:    logger.With(slog.String("component", "insight")),
	}
}

// SetEventSink sets where finished insights are published
func (s *Service) SetEventSink(sink EventSink) {
	s.sink = sink
}

// SetRecorder sets the metrics recorder
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// Configured reports whether a generator is available
func (s *Service) Configured() bool {
	return s.generator != nil
}

// Key returns the content key of a view: blake2b-256 over its kind and
// serialized table.
func Key(kind domain.ViewKind, table string) string {
	sum := blake2b.Sum256([]byte(string(kind) + "\x00" + table))
	return hex.EncodeToString(sum[:])
}

// Insight returns the insight for one view
func (s *Service) Insight(ctx context.Context, view domain.View) domain.Insight {
	start := time.Now()
	result := domain.Insight{Kind: view.Kind}

	if view.Empty() {
		result.Text = NoDataText
		result.Fallback = true
		s.record(ctx, view.Kind, OutcomeNoData, start)
		return result
	}

	table := FormatTable(view)
	key := Key(view.Kind, table)
	if text, ok := s.cache.Get(key); ok {
		result.Text = text.(string)
		result.Cached = true
		s.record(ctx, view.Kind, OutcomeCached, start)
		return result
	}

	if s.generator == nil {
		result.Text = FallbackText
		result.Fallback = true
		result.Error = ErrNotConfigured.Error()
		s.record(ctx, view.Kind, OutcomeUnconfigured, start)
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	text, err := s.generator.Generate(callCtx, view.Title, table)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = ErrEmptyInsight
	}
	if err != nil {
		s.logger.WarnContext(ctx, "insight generation failed, using fallback",
			slog.String("view", string(view.Kind)),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		result.Text = FallbackText
		result.Fallback = true
		result.Error = err.Error()
		s.record(ctx, view.Kind, OutcomeFallback, start)
		return result
	}

	s.cache.SetDefault(key, text)
	result.Text = text
	s.record(ctx, view.Kind, OutcomeGenerated, start)
	return result
}

// InsightsFor generates insights for every view concurrently. Results are in
// view order and each one is published to the event sink as it finishes.
func (s *Service) InsightsFor(ctx context.Context, datasetID string, views []domain.View) []domain.Insight {
	out := make([]domain.Insight, len(views))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, view := range views {
		i, view := i, view
		g.Go(func() error {
			out[i] = s.Insight(gctx, view)
			s.publish(datasetID, out[i])
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// ReadyEvent is the payload of an insight:ready event
type ReadyEvent struct {
	DatasetID string         `json:"dataset_id,omitempty"`
	Insight   domain.Insight `json:"insight"`
}

func (s *Service) publish(datasetID string, in domain.Insight) {
	if s.sink == nil {
		return
	}
	s.sink.Broadcast(EventInsightReady, ReadyEvent{DatasetID: datasetID, Insight: in})
}

func (s *Service) record(ctx context.Context, kind domain.ViewKind, outcome string, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordInsight(ctx, kind, outcome, time.Since(start))
}

// Flush drops every cached insight
func (s *Service) Flush() {
	s.cache.Flush()
}
