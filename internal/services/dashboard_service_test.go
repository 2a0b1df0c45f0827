package services

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mediapulse/internal/charts"
	"mediapulse/internal/ingest"
	"mediapulse/internal/validation"
	"mediapulse/pkg/contracts/domain"
)

const sampleCSV = "Date,Platform,Sentiment,Engagements,Media Type,Location\n" +
	"2024-01-01,X,positive,10,video,Jakarta\n" +
	"2024-01-02,Y,negative,5,image,Bandung\n" +
	"2024-01-02,X,positive,7,video,Jakarta\n" +
	"bad,Z,neutral,1,text,Medan\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newTestService(t *testing.T, insights InsightProvider) *DashboardService {
	t.Helper()
	return NewDashboardService(DashboardOptions{MaxUploadBytes: 1 << 20, DatasetTTL: time.Hour}, insights, testLogger())
}

func upload(t *testing.T, svc *DashboardService, content string) *DatasetSummary {
	t.Helper()
	summary, err := svc.Upload(context.Background(), "export.csv", strings.NewReader(content))
	require.NoError(t, err)
	return summary
}

func TestDashboardService_Upload(t *testing.T) {
	hub := new(MockWebSocketHub)
	hub.On("Broadcast", EventDatasetLoaded, mock.AnythingOfType("*services.DatasetSummary")).Once()

	rec := new(MockIngestRecorder)
	rec.On("RecordIngest", mock.Anything, "csv", mock.AnythingOfType("*domain.IngestReport"), mock.Anything).Once()

	svc := newTestService(t, nil)
	svc.SetEventPublisher(hub)
	svc.SetRecorder(rec)

	summary := upload(t, svc, sampleCSV)
	assert.NotEmpty(t, summary.ID)
	assert.False(t, summary.Cached)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 1, summary.Report.DroppedInvalidDates)
	assert.Equal(t, []string{domain.PlatformAll, "X", "Y"}, summary.Options.Platforms)
	require.NotNil(t, summary.Options.MinDate)
	assert.Equal(t, "2024-01-01", summary.Options.MinDate.Format(domain.DateLayout))
	assert.Equal(t, "2024-01-02", summary.Options.MaxDate.Format(domain.DateLayout))
	assert.Equal(t, 1, svc.DatasetCount())

	hub.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestDashboardService_UploadIsMemoized(t *testing.T) {
	hub := new(MockWebSocketHub)
	hub.On("Broadcast", EventDatasetLoaded, mock.Anything)

	svc := newTestService(t, nil)
	svc.SetEventPublisher(hub)

	first := upload(t, svc, sampleCSV)
	second := upload(t, svc, sampleCSV)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, svc.DatasetCount())
	hub.AssertNumberOfCalls(t, "Broadcast", 1)

	other := upload(t, svc, sampleCSV+"2024-01-03,X,positive,1,video,Bali\n")
	assert.NotEqual(t, first.ID, other.ID)

	// deleting forgets the content key too
	require.NoError(t, svc.Delete(context.Background(), first.ID))
	third := upload(t, svc, sampleCSV)
	assert.NotEqual(t, first.ID, third.ID)
	assert.False(t, third.Cached)
	hub.AssertNumberOfCalls(t, "Broadcast", 3)
}

func TestDashboardService_UploadErrors(t *testing.T) {
	svc := NewDashboardService(DashboardOptions{MaxUploadBytes: 64}, nil, testLogger())

	_, err := svc.Upload(context.Background(), "big.csv", strings.NewReader(strings.Repeat("a", 65)))
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	_, err = svc.Upload(context.Background(), "empty.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyUpload)
	assert.ErrorIs(t, err, ingest.ErrParse, "an empty upload has no header")

	_, err = svc.Upload(context.Background(), "broken.csv", strings.NewReader("a,b\n1,2,3\n"))
	var perr *ingest.ParseError
	assert.True(t, errors.As(err, &perr))

	_, err = svc.Upload(context.Background(), "data.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)

	_, err = svc.Upload(context.Background(), "renamed.xlsx", strings.NewReader("date\n"))
	assert.ErrorIs(t, err, validation.ErrNotWorkbook)
	assert.ErrorIs(t, err, ingest.ErrParse)

	assert.Zero(t, svc.DatasetCount())
}

func TestDashboardService_NotFound(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Summary(ctx, "missing")
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	_, err = svc.Dashboard(ctx, "missing", domain.FilterSelection{}, false)
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrDatasetNotFound)

	var buf bytes.Buffer
	assert.ErrorIs(t, svc.Export(ctx, "missing", domain.FilterSelection{}, &buf), ErrDatasetNotFound)
}

func TestDashboardService_Dashboard(t *testing.T) {
	insights := new(MockInsightProvider)
	insights.On("Configured").Return(true)

	svc := newTestService(t, insights)
	summary := upload(t, svc, sampleCSV)

	insights.On("InsightsFor", mock.Anything, summary.ID, mock.Anything).
		Return([]domain.Insight{{Kind: domain.ViewSentimentBreakdown, Text: "tip"}}).Once()

	dash, err := svc.Dashboard(context.Background(), summary.ID, domain.FilterSelection{Platform: "X"}, true)
	require.NoError(t, err)

	assert.Equal(t, summary.ID, dash.DatasetID)
	assert.Equal(t, 2, dash.Result.FilteredRows)
	assert.Len(t, dash.Result.Views, len(domain.ViewKinds))
	require.Len(t, dash.Insights, 1)

	// without insights the provider is not called again
	dash, err = svc.Dashboard(context.Background(), summary.ID, domain.FilterSelection{}, false)
	require.NoError(t, err)
	assert.Empty(t, dash.Insights)
	insights.AssertNumberOfCalls(t, "InsightsFor", 1)
}

func TestDashboardService_View(t *testing.T) {
	svc := newTestService(t, nil)
	summary := upload(t, svc, sampleCSV)
	ctx := context.Background()

	view, err := svc.View(ctx, summary.ID, domain.FilterSelection{}, domain.ViewPlatformEngagement)
	require.NoError(t, err)
	assert.Equal(t, []domain.ViewRow{{Key: "X", Value: 17}, {Key: "Y", Value: 5}}, view.Rows)

	_, err = svc.View(ctx, summary.ID, domain.FilterSelection{}, domain.ViewKind("nope"))
	assert.ErrorIs(t, err, ErrViewNotFound)

	partial := upload(t, svc, "sentiment\npositive\n")
	_, err = svc.View(ctx, partial.ID, domain.FilterSelection{}, domain.ViewTopLocations)
	assert.ErrorIs(t, err, ErrViewSkipped)
	assert.Contains(t, err.Error(), "location")
}

func TestDashboardService_ChartAndCSV(t *testing.T) {
	svc := newTestService(t, nil)
	summary := upload(t, svc, sampleCSV)
	ctx := context.Background()

	var img bytes.Buffer
	require.NoError(t, svc.Chart(ctx, summary.ID, domain.FilterSelection{}, domain.ViewSentimentBreakdown, &img))
	_, err := png.Decode(&img)
	require.NoError(t, err)

	var empty bytes.Buffer
	err = svc.Chart(ctx, summary.ID, domain.FilterSelection{Platform: "Nobody"}, domain.ViewSentimentBreakdown, &empty)
	assert.ErrorIs(t, err, charts.ErrNoData)

	var out bytes.Buffer
	require.NoError(t, svc.ViewCSV(ctx, summary.ID, domain.FilterSelection{}, domain.ViewTopLocations, &out))
	assert.Contains(t, out.String(), "Location,Engagements\nJakarta,17\nBandung,5\n")
}

func TestDashboardService_Export(t *testing.T) {
	svc := newTestService(t, nil)
	summary := upload(t, svc, sampleCSV)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), summary.ID, domain.FilterSelection{}, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 1+len(domain.ViewKinds))
}

func TestDashboardService_Filename(t *testing.T) {
	svc := newTestService(t, nil)
	summary := upload(t, svc, sampleCSV)

	name, err := svc.Filename(summary.ID)
	require.NoError(t, err)
	assert.Equal(t, "export.csv", name)
}

func TestContentKey(t *testing.T) {
	a := contentKey("csv", []byte("x"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, contentKey("csv", []byte("x")))
	assert.NotEqual(t, a, contentKey("xlsx", []byte("x")))
	assert.Equal(t, "csv", fileFormat("upload"))
	assert.Equal(t, "xlsx", fileFormat("Report.XLSX"))
}
