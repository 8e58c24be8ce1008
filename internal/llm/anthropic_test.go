package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check.
var _ CompletionClient = (*AnthropicClient)(nil)

// newAnthropicTestServer creates an httptest server that responds with the given handler.
func newAnthropicTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// newAnthropicTestClient creates an AnthropicClient pointing at the given test server URL.
func newAnthropicTestClient(baseURL string, maxRetries int) *AnthropicClient {
	cfg := AnthropicConfig{
		APIKey:  "test-api-key",
		Model:   "claude-3-haiku-20240307",
		BaseURL: baseURL,
	}
	c := NewAnthropicClient(cfg, 0.3, 10*time.Second, maxRetries)
	c.retryDelay = 10 * time.Millisecond // Fast retries for tests.
	return c
}

func TestAnthropicClient_Complete(t *testing.T) {
	t.Parallel()

	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		defer r.Body.Close()

		var reqBody messagesRequest
		err = json.Unmarshal(body, &reqBody)
		require.NoError(t, err)

		assert.Equal(t, "claude-3-haiku-20240307", reqBody.Model)
		assert.Equal(t, 100, reqBody.MaxTokens)
		require.Len(t, reqBody.Messages, 1)
		assert.Equal(t, "user", reqBody.Messages[0].Role)
		assert.Equal(t, "extract search terms", reqBody.Messages[0].Content)
		assert.InDelta(t, 0.3, reqBody.Temperature, 0.001)

		resp := messagesResponse{
			ID:   "msg_test123",
			Type: "message",
			Role: "assistant",
			Content: []contentBlock{
				{Type: "text", Text: `("CRISPR" OR "gene editing") AND "off-target effects"`},
			},
			Model:      "claude-3-haiku-20240307",
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 150, OutputTokens: 25},
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}

	srv := newAnthropicTestServer(t, handler)
	client := newAnthropicTestClient(srv.URL, 0)

	text, err := client.Complete(context.Background(), CompletionRequest{
		Prompt:    "extract search terms",
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, `("CRISPR" OR "gene editing") AND "off-target effects"`, text)
}

func TestAnthropicClient_Complete_APIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		body          string
		wantTransient bool
		wantType      string
	}{
		{
			name:          "bad request is permanent",
			statusCode:    http.StatusBadRequest,
			body:          `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`,
			wantTransient: false,
			wantType:      "invalid_request_error",
		},
		{
			name:          "rate limit is transient",
			statusCode:    http.StatusTooManyRequests,
			body:          `{"type":"error","error":{"type":"rate_limit_error","message":"rate limited"}}`,
			wantTransient: true,
			wantType:      "rate_limit_error",
		},
		{
			name:          "server error is transient",
			statusCode:    http.StatusInternalServerError,
			body:          `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`,
			wantTransient: true,
			wantType:      "api_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				io.WriteString(w, tt.body)
			})
			client := newAnthropicTestClient(srv.URL, 0)

			_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x", MaxTokens: 10})
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "anthropic", apiErr.Provider)
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.wantTransient, apiErr.IsTransient())
		})
	}
}

func TestAnthropicClient_Complete_RetriesTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: "ok"}},
		})
	})

	client := newAnthropicTestClient(srv.URL, 2)
	text, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnthropicClient_Complete_SingleAttemptWhenRetriesDisabled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client := newAnthropicTestClient(srv.URL, 0)
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x", MaxTokens: 10})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnthropicClient_Complete_NoTextBlocks(t *testing.T) {
	t.Parallel()

	srv := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messagesResponse{Content: []contentBlock{}})
	})

	client := newAnthropicTestClient(srv.URL, 0)
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x", MaxTokens: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content blocks")
}
