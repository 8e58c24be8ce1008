package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
	"github.com/LoganNickels654/research-assistant-service/internal/llm"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
)

const (
	// rankMaxTokens caps the completion for the ranking call.
	rankMaxTokens = 1000

	// rankAbstractLimit truncates abstracts in the ranking prompt to keep the
	// batch within the model's context budget.
	rankAbstractLimit = 500
)

// paperSummary is the compact per-paper view sent to the model.
type paperSummary struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Year     string `json:"year"`
}

// ranking is one scored entry of the model's JSON response.
type ranking struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
	Reason         string  `json:"reason"`
}

const rankPromptTemplate = `Original Research Question: %q

Please analyze these research papers and rank them by relevance to the research question.
For each paper, provide:
1. A relevance score (0-10, where 10 is most relevant)
2. A brief reason why it's relevant or not relevant

Papers to analyze:
%s

Respond with a JSON array like this:
[
  {
    "index": 0,
    "relevance_score": 8.5,
    "reason": "Directly addresses the research question with recent data"
  },
  {
    "index": 1,
    "relevance_score": 6.0,
    "reason": "Related topic but focuses on different population"
  }
]

Return only the JSON array, no other text.`

// RelevanceRanker implements Ranker with a single batched LLM completion.
type RelevanceRanker struct {
	client  llm.CompletionClient
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewRelevanceRanker creates a RelevanceRanker backed by the given client.
func NewRelevanceRanker(client llm.CompletionClient, logger zerolog.Logger) *RelevanceRanker {
	componentLogger := logger.With().Str("component", "ranker").Logger()
	return &RelevanceRanker{
		client: client,
		logger: observability.WithLLMContext(componentLogger, client.Provider(), client.Model()),
	}
}

// WithMetrics attaches metrics recording to the ranker and returns it.
func (r *RelevanceRanker) WithMetrics(m *observability.Metrics) *RelevanceRanker {
	r.metrics = m
	return r
}

// Rank scores every paper against the question in one completion call and
// returns a new slice sorted by relevance score, highest first. Papers with
// equal scores keep their input order. The model's output must be a bare JSON
// array; anything else is an error and the caller keeps the unranked order.
func (r *RelevanceRanker) Rank(ctx context.Context, question string, papers []*domain.Paper) ([]*domain.Paper, error) {
	if len(papers) == 0 {
		return papers, nil
	}

	summaries := make([]paperSummary, len(papers))
	for i, p := range papers {
		summaries[i] = paperSummary{
			Index:    i,
			Title:    p.Title,
			Abstract: truncateAbstract(p.Abstract),
			Year:     p.Year,
		}
	}

	summariesJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ranking: failed to marshal paper summaries: %w", err)
	}

	prompt := fmt.Sprintf(rankPromptTemplate, question, summariesJSON)

	start := time.Now()
	text, err := r.client.Complete(ctx, llm.CompletionRequest{
		Prompt:    prompt,
		MaxTokens: rankMaxTokens,
	})
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordLLMRequestFailed("rank", r.client.Model(), "completion")
		}
		return nil, fmt.Errorf("ranking: %w", err)
	}
	if r.metrics != nil {
		r.metrics.RecordLLMRequest("rank", r.client.Model(), time.Since(start).Seconds())
	}

	var rankings []ranking
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &rankings); err != nil {
		return nil, fmt.Errorf("ranking: failed to parse model response as JSON array: %w", err)
	}

	ranked := make([]*domain.Paper, len(papers))
	copy(ranked, papers)

	applied := 0
	for _, rk := range rankings {
		if rk.Index < 0 || rk.Index >= len(ranked) {
			r.logger.Debug().Int("index", rk.Index).Msg("ignoring out-of-range ranking index")
			continue
		}
		ranked[rk.Index].RelevanceScore = rk.RelevanceScore
		ranked[rk.Index].RelevanceReason = rk.Reason
		applied++
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	r.logger.Debug().Int("papers", len(papers)).Int("scored", applied).Msg("ranked papers by relevance")
	return ranked, nil
}

// truncateAbstract shortens an abstract to rankAbstractLimit characters,
// marking the cut with an ellipsis.
func truncateAbstract(abstract string) string {
	if len(abstract) <= rankAbstractLimit {
		return abstract
	}
	return abstract[:rankAbstractLimit] + "..."
}
