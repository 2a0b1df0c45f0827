package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCounter struct{ n int }

func (f fakeCounter) ClientCount() int  { return f.n }
func (f fakeCounter) DatasetCount() int { return f.n }

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", fakeCounter{}, fakeCounter{}, false, testLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name     string
		hub      ClientCounter
		datasets DatasetCounter
		want     string
	}{
		{"all ready", fakeCounter{}, fakeCounter{}, "ready"},
		{"no hub", nil, fakeCounter{}, "not_ready"},
		{"no dataset store", fakeCounter{}, nil, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("dev", tt.hub, tt.datasets, false, testLogger())
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Contains(t, status.Services, "insight")
		})
	}
}

func TestHealthService_InsightNeverBlocksReadiness(t *testing.T) {
	hs := NewHealthService("dev", fakeCounter{}, fakeCounter{}, false, testLogger())
	insight := hs.ReadinessCheck(context.Background()).Services["insight"].(ServiceHealth)
	assert.Equal(t, "ready", insight.Status)
	assert.Contains(t, insight.Message, "fallback")
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("dev", nil, nil, true, testLogger())

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, "dev", v["version"])
	assert.Contains(t, v, "api_version")
}
