package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"mediapulse/pkg/contracts/domain"
)

// MockWebSocketHub is a mock for the EventPublisher interface
type MockWebSocketHub struct {
	mock.Mock
}

func (m *MockWebSocketHub) Broadcast(messageType string, data interface{}) {
	m.Called(messageType, data)
}

// MockInsightProvider is a mock for the InsightProvider interface
type MockInsightProvider struct {
	mock.Mock
}

func (m *MockInsightProvider) InsightsFor(ctx context.Context, datasetID string, views []domain.View) []domain.Insight {
	args := m.Called(ctx, datasetID, views)
	return args.Get(0).([]domain.Insight)
}

func (m *MockInsightProvider) Configured() bool {
	return m.Called().Bool(0)
}

// MockIngestRecorder is a mock for the IngestRecorder interface
type MockIngestRecorder struct {
	mock.Mock
}

func (m *MockIngestRecorder) RecordIngest(ctx context.Context, format string, report *domain.IngestReport, elapsed time.Duration) {
	m.Called(ctx, format, report, elapsed)
}
