package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoganNickels654/research-assistant-service/internal/llm"
)

// fakeCompletionClient is a scripted llm.CompletionClient for pipeline tests.
type fakeCompletionClient struct {
	response string
	err      error
	calls    int
	lastReq  llm.CompletionRequest
}

func (f *fakeCompletionClient) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.calls++
	f.lastReq = req
	return f.response, f.err
}

func (f *fakeCompletionClient) Provider() string { return "fake" }
func (f *fakeCompletionClient) Model() string    { return "fake-model" }

func TestQueryTranslator_Translate(t *testing.T) {
	client := &fakeCompletionClient{response: "  caffeine AND sleep quality\n"}
	translator := NewQueryTranslator(client, zerolog.Nop())

	query, err := translator.Translate(context.Background(), "How does caffeine affect sleep quality?")
	require.NoError(t, err)
	assert.Equal(t, "caffeine AND sleep quality", query)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, translateMaxTokens, client.lastReq.MaxTokens)
	assert.Contains(t, client.lastReq.Prompt, `"How does caffeine affect sleep quality?"`)
	assert.Contains(t, client.lastReq.Prompt, "Return only the search string")
}

func TestQueryTranslator_Translate_ClientError(t *testing.T) {
	client := &fakeCompletionClient{err: errors.New("boom")}
	translator := NewQueryTranslator(client, zerolog.Nop())

	_, err := translator.Translate(context.Background(), "any question")
	require.Error(t, err)
	assert.Equal(t, 1, client.calls, "translation makes exactly one attempt")
}

func TestQueryTranslator_Translate_EmptyResponse(t *testing.T) {
	client := &fakeCompletionClient{response: "   \n"}
	translator := NewQueryTranslator(client, zerolog.Nop())

	_, err := translator.Translate(context.Background(), "any question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
}
