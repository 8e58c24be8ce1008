package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the research assistant service.
// Metrics are organized by subsystem: questions, searches, PubMed requests,
// LLM operations, saved papers, and request admission. All counters and
// histograms are registered via promauto for automatic registration with the
// default Prometheus registry.
type Metrics struct {
	// QuestionsReceived counts the total number of research questions received.
	QuestionsReceived prometheus.Counter

	// QuestionsCompleted counts the total number of questions that produced a result.
	QuestionsCompleted prometheus.Counter

	// QuestionDuration observes the end-to-end pipeline duration in seconds.
	QuestionDuration prometheus.Histogram

	// PapersPerQuestion observes the distribution of papers returned per question.
	PapersPerQuestion prometheus.Histogram

	// TranslationFallbacks counts questions where query translation failed and
	// the verbatim question was searched instead.
	TranslationFallbacks prometheus.Counter

	// RankingFallbacks counts questions where relevance ranking failed and
	// papers were returned in search order.
	RankingFallbacks prometheus.Counter

	// SearchesStarted counts PubMed searches initiated.
	SearchesStarted prometheus.Counter

	// SearchesCompleted counts PubMed searches that completed successfully.
	SearchesCompleted prometheus.Counter

	// SearchesFailed counts PubMed searches that failed.
	SearchesFailed prometheus.Counter

	// SearchDuration observes PubMed search duration in seconds.
	SearchDuration prometheus.Histogram

	// PapersPerSearch observes the distribution of papers returned per search.
	PapersPerSearch prometheus.Histogram

	// PubMedRequestsTotal counts HTTP requests to the E-utilities API, labeled by endpoint.
	PubMedRequestsTotal *prometheus.CounterVec

	// PubMedRequestsFailed counts failed E-utilities requests, labeled by endpoint and error type.
	PubMedRequestsFailed *prometheus.CounterVec

	// PubMedRequestDuration observes E-utilities request duration in seconds, labeled by endpoint.
	PubMedRequestDuration *prometheus.HistogramVec

	// LLMRequestsTotal counts LLM API requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by operation, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds, labeled by operation and model.
	LLMRequestDuration *prometheus.HistogramVec

	// PapersSaved counts papers saved to user libraries.
	PapersSaved prometheus.Counter

	// QuotaExceeded counts searches rejected for exhausted monthly quota.
	QuotaExceeded prometheus.Counter

	// RateLimited counts requests rejected by the per-IP rate limiter.
	RateLimited prometheus.Counter

	// HTTPRequestsTotal counts HTTP requests served, labeled by method, route, and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Questions
		QuestionsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_received_total",
			Help:      "Total number of research questions received",
		}),
		QuestionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_completed_total",
			Help:      "Total number of research questions completed",
		}),
		QuestionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "question_duration_seconds",
			Help:      "End-to-end pipeline duration per question in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		PapersPerQuestion: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_question",
			Help:      "Number of papers returned per question",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		TranslationFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_fallbacks_total",
			Help:      "Total number of questions searched verbatim after translation failure",
		}),
		RankingFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_fallbacks_total",
			Help:      "Total number of questions returned in search order after ranking failure",
		}),

		// Searches
		SearchesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of PubMed searches started",
		}),
		SearchesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of PubMed searches completed",
		}),
		SearchesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of PubMed searches that failed",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of PubMed searches in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		PapersPerSearch: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of papers returned per PubMed search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),

		// PubMed E-utilities
		PubMedRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pubmed_requests_total",
			Help:      "Total number of requests to the E-utilities API",
		}, []string{"endpoint"}),
		PubMedRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pubmed_requests_failed_total",
			Help:      "Total number of failed E-utilities requests",
		}, []string{"endpoint", "error_type"}),
		PubMedRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pubmed_request_duration_seconds",
			Help:      "Duration of E-utilities requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation", "model"}),

		// Library and admission
		PapersSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_saved_total",
			Help:      "Total number of papers saved to user libraries",
		}),
		QuotaExceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_exceeded_total",
			Help:      "Total number of searches rejected for exhausted monthly quota",
		}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"method", "route"}),
	}
}

// RecordQuestionReceived records that a research question has been received.
func (m *Metrics) RecordQuestionReceived() {
	m.QuestionsReceived.Inc()
}

// RecordQuestionCompleted records that a question finished the pipeline.
func (m *Metrics) RecordQuestionCompleted(paperCount int, durationSeconds float64) {
	m.QuestionsCompleted.Inc()
	m.QuestionDuration.Observe(durationSeconds)
	m.PapersPerQuestion.Observe(float64(paperCount))
}

// RecordTranslationFallback records a question searched verbatim.
func (m *Metrics) RecordTranslationFallback() {
	m.TranslationFallbacks.Inc()
}

// RecordRankingFallback records a question returned in search order.
func (m *Metrics) RecordRankingFallback() {
	m.RankingFallbacks.Inc()
}

// RecordSearchStarted records that a PubMed search has started.
func (m *Metrics) RecordSearchStarted() {
	m.SearchesStarted.Inc()
}

// RecordSearchCompleted records that a PubMed search has completed.
func (m *Metrics) RecordSearchCompleted(paperCount int, durationSeconds float64) {
	m.SearchesCompleted.Inc()
	m.SearchDuration.Observe(durationSeconds)
	m.PapersPerSearch.Observe(float64(paperCount))
}

// RecordSearchFailed records that a PubMed search has failed.
func (m *Metrics) RecordSearchFailed(durationSeconds float64) {
	m.SearchesFailed.Inc()
	m.SearchDuration.Observe(durationSeconds)
}

// RecordPubMedRequest records a request to the E-utilities API.
func (m *Metrics) RecordPubMedRequest(endpoint string, durationSeconds float64) {
	m.PubMedRequestsTotal.WithLabelValues(endpoint).Inc()
	m.PubMedRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordPubMedRequestFailed records a failed request to the E-utilities API.
func (m *Metrics) RecordPubMedRequestFailed(endpoint, errorType string) {
	m.PubMedRequestsFailed.WithLabelValues(endpoint, errorType).Inc()
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64) {
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string) {
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}

// RecordPaperSaved records a paper saved to a user's library.
func (m *Metrics) RecordPaperSaved() {
	m.PapersSaved.Inc()
}

// RecordQuotaExceeded records a search rejected for exhausted quota.
func (m *Metrics) RecordQuotaExceeded() {
	m.QuotaExceeded.Inc()
}

// RecordRateLimited records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	m.RateLimited.Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
