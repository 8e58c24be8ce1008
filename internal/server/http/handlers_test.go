package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
)

func doSearch(env *testEnv, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestSearchHandler_Success(t *testing.T) {
	env := newTestServer(t)
	env.pipeline.papers = []*domain.Paper{
		{
			Title:           "CRISPR screening in melanoma",
			Authors:         []string{"Chen L", "Okafor A"},
			Abstract:        "A genome-wide screen.",
			Journal:         "Nature",
			Year:            "2024",
			PMID:            "38012345",
			RelevanceScore:  9.1,
			RelevanceReason: "Directly addresses the question.",
		},
		{
			Title:   "Background review",
			Authors: []string{"Smith J"},
			PMID:    "37000001",
		},
	}

	rec := doSearch(env, `{"question": "What drives resistance to BRAF inhibitors?", "max_papers": 5}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "What drives resistance to BRAF inhibitors?", resp.Question)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Papers, 2)
	assert.Equal(t, "CRISPR screening in melanoma", resp.Papers[0].Title)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/38012345/", resp.Papers[0].SourceURL)
	assert.InDelta(t, 9.1, resp.Papers[0].RelevanceScore, 0.001)

	assert.Equal(t, "What drives resistance to BRAF inhibitors?", env.pipeline.lastQuestion)
	assert.Equal(t, 5, env.pipeline.lastMax)
	assert.Equal(t, 1, env.quota.consumed)
}

func TestSearchHandler_DefaultsMaxPapers(t *testing.T) {
	env := newTestServer(t)

	rec := doSearch(env, `{"question": "effects of sleep on memory"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, env.pipeline.lastMax)
}

func TestSearchHandler_Validation(t *testing.T) {
	env := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"blank question", `{"question": "   "}`},
		{"not json", `this is not json`},
		{"unknown field", `{"question": "x", "bogus": true}`},
		{"max_papers over limit", `{"question": "x", "max_papers": 51}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doSearch(env, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	t.Run("question too long", func(t *testing.T) {
		long := strings.Repeat("a", 501)
		rec := doSearch(env, `{"question": "`+long+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	assert.Zero(t, env.quota.consumed, "invalid requests must not consume quota")
}

func TestSearchHandler_QuotaExceeded(t *testing.T) {
	env := newTestServer(t)
	env.quota.err = domain.NewQuotaExceededError(testUserID.String(), 100)

	rec := doSearch(env, `{"question": "anything"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, env.pipeline.lastQuestion, "pipeline must not run when quota is exhausted")
}

func TestSearchHandler_QuotaRepositoryError(t *testing.T) {
	env := newTestServer(t)
	env.quota.err = domain.ErrInternalError

	rec := doSearch(env, `{"question": "anything"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearchHandler_EmptyResults(t *testing.T) {
	env := newTestServer(t)

	rec := doSearch(env, `{"question": "a question with no matching literature"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
	assert.NotNil(t, resp.Papers)
	assert.Empty(t, resp.Papers)
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", domain.NewNotFoundError("saved paper", "abc"), http.StatusNotFound},
		{"validation", domain.NewValidationError("title", "is required"), http.StatusBadRequest},
		{"already exists", domain.ErrAlreadyExists, http.StatusConflict},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"quota exceeded", domain.NewQuotaExceededError("u", 100), http.StatusTooManyRequests},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
		{"service unavailable", domain.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
