// Package pipeline turns a natural-language research question into a ranked
// list of papers. The stages are query translation, literature search, and
// relevance ranking, each behind an interface so the orchestrator can be
// tested with fakes.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
)

// DefaultMaxPapers is used when the caller does not request a result size.
const DefaultMaxPapers = 10

// Translator converts a research question into a boolean search query.
type Translator interface {
	Translate(ctx context.Context, question string) (string, error)
}

// Searcher queries a literature database for papers matching a query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]*domain.Paper, error)
}

// Ranker orders papers by relevance to the original question.
type Ranker interface {
	Rank(ctx context.Context, question string, papers []*domain.Paper) ([]*domain.Paper, error)
}

// Pipeline orchestrates the three stages. Every stage failure degrades to a
// still-valid result: a failed translation searches with the verbatim
// question, a failed search yields no papers, and a failed ranking preserves
// the search order. ProcessResearchQuestion therefore never returns an error.
type Pipeline struct {
	translator Translator
	searcher   Searcher
	ranker     Ranker
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates a Pipeline from its stage implementations.
func New(translator Translator, searcher Searcher, ranker Ranker, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		translator: translator,
		searcher:   searcher,
		ranker:     ranker,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// WithMetrics attaches metrics recording to the pipeline and returns it.
func (p *Pipeline) WithMetrics(m *observability.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// ProcessResearchQuestion runs the full question-to-papers workflow and
// returns at most maxPapers results. The search over-fetches twice the
// requested amount so the ranker has a larger pool to choose from. An empty
// result is a normal outcome.
func (p *Pipeline) ProcessResearchQuestion(ctx context.Context, question string, maxPapers int) []*domain.Paper {
	if maxPapers <= 0 {
		maxPapers = DefaultMaxPapers
	}

	start := time.Now()

	query, err := p.translator.Translate(ctx, question)
	if err != nil {
		p.logger.Warn().Err(err).Msg("query translation failed, searching with verbatim question")
		if p.metrics != nil {
			p.metrics.RecordTranslationFallback()
		}
		query = question
	}

	logger := observability.WithSearchContext(p.logger, question, query)

	papers, err := p.searcher.Search(ctx, query, maxPapers*2)
	if err != nil {
		logger.Warn().Err(err).Msg("literature search failed")
		return []*domain.Paper{}
	}

	if len(papers) == 0 {
		logger.Info().Msg("search returned no papers")
		return []*domain.Paper{}
	}

	ranked, err := p.ranker.Rank(ctx, question, papers)
	if err != nil {
		logger.Warn().Err(err).Msg("relevance ranking failed, keeping search order")
		if p.metrics != nil {
			p.metrics.RecordRankingFallback()
		}
		ranked = papers
	}

	if len(ranked) > maxPapers {
		ranked = ranked[:maxPapers]
	}

	logger.Info().
		Int("papers", len(ranked)).
		Dur("duration", time.Since(start)).
		Msg("research question processed")

	return ranked
}
