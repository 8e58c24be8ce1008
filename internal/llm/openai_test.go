package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check.
var _ CompletionClient = (*OpenAIClient)(nil)

func newOpenAITestClient(baseURL string, maxRetries int) *OpenAIClient {
	cfg := OpenAIConfig{
		APIKey:  "test-api-key",
		Model:   "gpt-4o-mini",
		BaseURL: baseURL,
	}
	c := NewOpenAIClient(cfg, 0.3, 10*time.Second, maxRetries)
	c.retryDelay = 10 * time.Millisecond
	return c
}

func TestOpenAIClient_Complete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var reqBody chatRequest
		require.NoError(t, json.Unmarshal(body, &reqBody))
		assert.Equal(t, "gpt-4o-mini", reqBody.Model)
		assert.Equal(t, 1000, reqBody.MaxTokens)
		require.Len(t, reqBody.Messages, 1)
		assert.Equal(t, "user", reqBody.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			ID: "chatcmpl-test",
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: `[{"index": 0, "relevance_score": 9.0, "reason": "direct match"}]`}},
			},
			Usage: chatUsage{PromptTokens: 200, CompletionTokens: 30},
		})
	}))
	t.Cleanup(srv.Close)

	client := newOpenAITestClient(srv.URL, 0)
	text, err := client.Complete(context.Background(), CompletionRequest{Prompt: "rank papers", MaxTokens: 1000})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"index": 0, "relevance_score": 9.0, "reason": "direct match"}]`, text)
}

func TestOpenAIClient_Complete_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	t.Cleanup(srv.Close)

	client := newOpenAITestClient(srv.URL, 2)
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x", MaxTokens: 10})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "openai", apiErr.Provider)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_api_key", apiErr.Code)
	assert.False(t, apiErr.IsTransient())
}

func TestOpenAIClient_Complete_EmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{ID: "chatcmpl-test"})
	}))
	t.Cleanup(srv.Close)

	client := newOpenAITestClient(srv.URL, 0)
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x", MaxTokens: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestIsTransientError(t *testing.T) {
	t.Parallel()

	assert.True(t, isTransientError(&APIError{StatusCode: 0}))
	assert.True(t, isTransientError(&APIError{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, isTransientError(&APIError{StatusCode: http.StatusBadGateway}))
	assert.False(t, isTransientError(&APIError{StatusCode: http.StatusBadRequest}))
	assert.False(t, isTransientError(context.Canceled))
}
