package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/LoganNickels654/research-assistant-service/internal/llm"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
)

// translateMaxTokens caps the completion for keyword extraction. A boolean
// query of 3-6 terms fits comfortably.
const translateMaxTokens = 100

const translatePromptTemplate = `Convert this research question into effective PubMed search keywords.

Research Question: %q

Guidelines:
- Use medical/scientific terminology when appropriate
- Include 3-6 key terms
- Use AND/OR operators if helpful
- Focus on the main concepts
- Consider synonyms for key terms

Return only the search string, nothing else.

Examples:
"How does caffeine affect sleep quality?" -> "caffeine AND sleep quality"
"What are the benefits of meditation for anxiety?" -> "meditation AND anxiety OR mindfulness therapy"`

// QueryTranslator implements Translator with a single LLM completion call.
type QueryTranslator struct {
	client  llm.CompletionClient
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewQueryTranslator creates a QueryTranslator backed by the given client.
func NewQueryTranslator(client llm.CompletionClient, logger zerolog.Logger) *QueryTranslator {
	componentLogger := logger.With().Str("component", "translator").Logger()
	return &QueryTranslator{
		client: client,
		logger: observability.WithLLMContext(componentLogger, client.Provider(), client.Model()),
	}
}

// WithMetrics attaches metrics recording to the translator and returns it.
func (t *QueryTranslator) WithMetrics(m *observability.Metrics) *QueryTranslator {
	t.metrics = m
	return t
}

// Translate asks the model for a boolean PubMed query. It makes exactly one
// attempt; the caller falls back to the verbatim question on error.
func (t *QueryTranslator) Translate(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(translatePromptTemplate, question)

	start := time.Now()
	text, err := t.client.Complete(ctx, llm.CompletionRequest{
		Prompt:    prompt,
		MaxTokens: translateMaxTokens,
	})
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordLLMRequestFailed("translate", t.client.Model(), "completion")
		}
		return "", fmt.Errorf("keyword extraction: %w", err)
	}
	if t.metrics != nil {
		t.metrics.RecordLLMRequest("translate", t.client.Model(), time.Since(start).Seconds())
	}

	query := strings.TrimSpace(text)
	if query == "" {
		return "", fmt.Errorf("keyword extraction: model returned empty query")
	}

	t.logger.Debug().Str("question", question).Str("query", query).Msg("translated research question")
	return query, nil
}
