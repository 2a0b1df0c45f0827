package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int64   `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, content string, seen *chatRequest, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		resp := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "openai/gpt-3.5-turbo",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var seen chatRequest
	var calls int32
	srv := completionServer(t, http.StatusOK, "  - one\n- two\n- three\n", &seen, &calls)
	defer srv.Close()

	gen, err := NewOpenAIGenerator(GeneratorConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "Platform Engagements", "Platform  Engagements\nX  10")
	require.NoError(t, err)
	assert.Equal(t, "- one\n- two\n- three", text)

	assert.Equal(t, DefaultModel, seen.Model)
	assert.InDelta(t, DefaultTemperature, seen.Temperature, 1e-9)
	assert.Equal(t, int64(DefaultMaxTokens), seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, systemPrompt, seen.Messages[0].Content)
	assert.Equal(t, "user", seen.Messages[1].Role)
	assert.Contains(t, seen.Messages[1].Content, "'Platform Engagements'")
	assert.Contains(t, seen.Messages[1].Content, "X  10")
}

func TestOpenAIGenerator_ErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := completionServer(t, http.StatusInternalServerError, "", nil, &calls)
	defer srv.Close()

	gen, err := NewOpenAIGenerator(GeneratorConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "t", "c")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAIGenerator_EmptyContent(t *testing.T) {
	var calls int32
	srv := completionServer(t, http.StatusOK, "", nil, &calls)
	defer srv.Close()

	gen, err := NewOpenAIGenerator(GeneratorConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "t", "c")
	assert.ErrorIs(t, err, ErrEmptyInsight)
}

func TestNewOpenAIGenerator_RequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(GeneratorConfig{APIKey: "  "})
	assert.Error(t, err)
}

func TestService_WithOpenAIGenerator_Fallback(t *testing.T) {
	var calls int32
	srv := completionServer(t, http.StatusBadGateway, "", nil, &calls)
	defer srv.Close()

	gen, err := NewOpenAIGenerator(GeneratorConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	got := NewService(gen, DefaultOptions(), testLogger()).Insight(context.Background(), platformView())
	assert.True(t, got.Fallback)
	assert.Equal(t, FallbackText, got.Text)
}
