package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_research_assistant_new")

	assert.NotNil(t, m.QuestionsReceived)
	assert.NotNil(t, m.QuestionsCompleted)
	assert.NotNil(t, m.QuestionDuration)
	assert.NotNil(t, m.TranslationFallbacks)
	assert.NotNil(t, m.RankingFallbacks)
	assert.NotNil(t, m.SearchesStarted)
	assert.NotNil(t, m.SearchesCompleted)
	assert.NotNil(t, m.SearchesFailed)
	assert.NotNil(t, m.PubMedRequestsTotal)
	assert.NotNil(t, m.PubMedRequestsFailed)
	assert.NotNil(t, m.LLMRequestsTotal)
	assert.NotNil(t, m.PapersSaved)
	assert.NotNil(t, m.QuotaExceeded)
	assert.NotNil(t, m.RateLimited)
	assert.NotNil(t, m.HTTPRequestsTotal)
}

func TestRecordQuestionReceived(t *testing.T) {
	m := NewMetrics("test_question_received")

	initial := testutil.ToFloat64(m.QuestionsReceived)
	m.RecordQuestionReceived()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.QuestionsReceived))
}

func TestRecordQuestionCompleted(t *testing.T) {
	m := NewMetrics("test_question_completed")

	initial := testutil.ToFloat64(m.QuestionsCompleted)
	m.RecordQuestionCompleted(10, 5.5)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.QuestionsCompleted))

	histCount, err := getHistogramSampleCount(m.QuestionDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordTranslationFallback(t *testing.T) {
	m := NewMetrics("test_translation_fallback")

	initial := testutil.ToFloat64(m.TranslationFallbacks)
	m.RecordTranslationFallback()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.TranslationFallbacks))
}

func TestRecordRankingFallback(t *testing.T) {
	m := NewMetrics("test_ranking_fallback")

	initial := testutil.ToFloat64(m.RankingFallbacks)
	m.RecordRankingFallback()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.RankingFallbacks))
}

func TestRecordSearchCompleted(t *testing.T) {
	m := NewMetrics("test_search_completed")

	m.RecordSearchStarted()
	m.RecordSearchCompleted(42, 2.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesCompleted))

	histCount, err := getHistogramSampleCount(m.PapersPerSearch)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordSearchFailed(t *testing.T) {
	m := NewMetrics("test_search_failed")

	m.RecordSearchFailed(1.0)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesFailed))
}

func TestRecordPubMedRequest(t *testing.T) {
	m := NewMetrics("test_pubmed_request")

	m.RecordPubMedRequest("esearch", 0.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PubMedRequestsTotal.WithLabelValues("esearch")))
}

func TestRecordPubMedRequestFailed(t *testing.T) {
	m := NewMetrics("test_pubmed_request_failed")

	m.RecordPubMedRequestFailed("efetch", "timeout")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PubMedRequestsFailed.WithLabelValues("efetch", "timeout")))
}

func TestRecordLLMRequest(t *testing.T) {
	m := NewMetrics("test_llm_request")

	m.RecordLLMRequest("translate", "gpt-4o-mini", 2.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("translate", "gpt-4o-mini")))
}

func TestRecordLLMRequestFailed(t *testing.T) {
	m := NewMetrics("test_llm_request_failed")

	m.RecordLLMRequestFailed("rank", "gpt-4o-mini", "rate_limit")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMRequestsFailed.WithLabelValues("rank", "gpt-4o-mini", "rate_limit")))
}

func TestRecordPaperSaved(t *testing.T) {
	m := NewMetrics("test_paper_saved")

	initial := testutil.ToFloat64(m.PapersSaved)
	m.RecordPaperSaved()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.PapersSaved))
}

func TestRecordQuotaExceeded(t *testing.T) {
	m := NewMetrics("test_quota_exceeded")

	initial := testutil.ToFloat64(m.QuotaExceeded)
	m.RecordQuotaExceeded()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.QuotaExceeded))
}

func TestRecordRateLimited(t *testing.T) {
	m := NewMetrics("test_rate_limited")

	initial := testutil.ToFloat64(m.RateLimited)
	m.RecordRateLimited()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.RateLimited))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics("test_http_request")

	m.RecordHTTPRequest("POST", "/api/v1/search", "200", 0.1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/search", "200")))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var dto = &dto.Metric{}
	if err := m.Write(dto); err != nil {
		return 0, err
	}

	return dto.Histogram.GetSampleCount(), nil
}
