package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediapulse/internal/config"
	"mediapulse/internal/insight"
	"mediapulse/internal/services"
	"mediapulse/internal/shared/testutil"
	ws "mediapulse/internal/websocket"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Telemetry.MetricExporter = "none"
	cfg.Telemetry.TraceExporter = "none"
	cfg.Insight.APIKey = ""
	return cfg
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	logger, _ := testutil.NewTestLogger(t)

	app, err := NewApplication(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		app.WebSocketHub.Stop()
	})
	return app
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(app *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication(t *testing.T) {
	app := newTestApp(t, nil)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Metrics)
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.DashboardService)
	assert.NotNil(t, app.HealthService)
	assert.False(t, app.InsightService.Configured())
	assert.Equal(t, "127.0.0.1:0", app.Server.Addr)
	assert.Nil(t, app.OTelProviders.PrometheusHTTP)
}

func TestNewApplication_NilConfig(t *testing.T) {
	_, err := NewApplication(nil, nil)
	assert.Error(t, err)
}

func TestNewInsightService(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	svc, err := NewInsightService(config.Default().Insight, logger)
	require.NoError(t, err)
	assert.False(t, svc.Configured())
	testutil.AssertLogAttr(t, logs, "fallback_env", config.FallbackAPIKeyEnv)

	cfg := config.Default().Insight
	cfg.APIKey = "test-key"
	svc, err = NewInsightService(cfg, logger)
	require.NoError(t, err)
	assert.True(t, svc.Configured())
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/health/ready", http.StatusOK},
		{http.MethodGet, "/api/health/live", http.StatusOK},
		{http.MethodGet, "/api/version", http.StatusOK},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
		{http.MethodGet, "/metrics", http.StatusNotFound},
		{http.MethodPut, "/api/health", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(app, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApplication_DashboardWithFallbackInsights(t *testing.T) {
	app := newTestApp(t, nil)

	rec := serve(app, uploadRequest(t, "/api/datasets", "media.csv", testutil.SampleMediaCSV()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary services.DatasetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, app.DashboardService.DatasetCount())

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/datasets/"+summary.ID+"/dashboard?insights=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var dash services.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	require.Len(t, dash.Insights, len(dash.Result.Views))
	for _, in := range dash.Insights {
		assert.True(t, in.Fallback)
		assert.Equal(t, insight.FallbackText, in.Text)
	}
}

func TestApplication_DashboardWithGeneratedInsights(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "openai/gpt-3.5-turbo",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": "- Twitter leads engagement"},
			}},
		})
	}))
	defer api.Close()

	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Insight.APIKey = "test-key"
		cfg.Insight.BaseURL = api.URL
	})
	require.True(t, app.InsightService.Configured())

	rec := serve(app, uploadRequest(t, "/api/datasets", "media.csv", testutil.SampleMediaCSV()))
	require.Equal(t, http.StatusCreated, rec.Code)
	var summary services.DatasetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/datasets/"+summary.ID+"/dashboard?insights=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var dash services.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	require.NotEmpty(t, dash.Insights)
	for _, in := range dash.Insights {
		assert.False(t, in.Fallback)
		assert.Equal(t, "- Twitter leads engagement", in.Text)
	}
}

func TestApplication_RateLimit(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Security.RateLimit.RPS = 1
		cfg.Security.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil)).Code)
}

func TestApplication_WebSocketEvents(t *testing.T) {
	app := newTestApp(t, nil)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	readType := func() string {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg ws.Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg.Type
	}
	assert.Equal(t, ws.TypeConnection, readType())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "media.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, testutil.SampleMediaCSV())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/datasets", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, services.EventDatasetLoaded, readType())
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t, nil)

	require.NoError(t, app.Start(context.Background()))
	assert.NotEqual(t, "127.0.0.1:0", app.Addr())

	resp, err := http.Get("http://" + app.Addr() + "/api/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(context.Background()))

	select {
	case err, ok := <-app.Done():
		assert.False(t, ok)
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	app := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + app.Addr() + "/api/health/live")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestApplication_StartBindError(t *testing.T) {
	first := newTestApp(t, nil)
	require.NoError(t, first.Start(context.Background()))
	defer first.Stop(context.Background())

	second := newTestApp(t, nil)
	second.Server.Addr = first.Addr()
	assert.Error(t, second.Start(context.Background()))
}
