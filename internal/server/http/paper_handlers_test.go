package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
)

func authedJSONRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestSavePaperHandler(t *testing.T) {
	t.Run("saves paper", func(t *testing.T) {
		env := newTestServer(t)

		body := `{
			"title": "Deep learning for protein folding",
			"authors": ["Jumper J", "Evans R"],
			"abstract": "A structure prediction method.",
			"journal": "Nature",
			"year": "2021",
			"pmid": "34265844"
		}`
		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodPost, "/api/v1/papers", body))

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp savedPaperResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEqual(t, uuid.Nil, resp.ID)
		assert.Equal(t, "Deep learning for protein folding", resp.Title)
		assert.Equal(t, "34265844", resp.PMID)
		assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/34265844/", resp.SourceURL)
		assert.False(t, resp.CreatedAt.IsZero())
	})

	t.Run("rejects missing title", func(t *testing.T) {
		env := newTestServer(t)

		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodPost, "/api/v1/papers", `{"pmid": "123"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate pmid conflicts", func(t *testing.T) {
		env := newTestServer(t)
		env.papers.saveErr = domain.ErrAlreadyExists

		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodPost, "/api/v1/papers", `{"title": "x", "pmid": "1"}`))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestListPapersHandler(t *testing.T) {
	env := newTestServer(t)

	seed := &domain.SavedPaper{
		UserID: testUserID,
		Title:  "Saved earlier",
		PMID:   "111",
	}
	_, err := env.papers.Save(t.Context(), seed)
	require.NoError(t, err)

	otherUser := &domain.SavedPaper{
		UserID: uuid.New(),
		Title:  "Someone else's paper",
	}
	_, err = env.papers.Save(t.Context(), otherUser)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodGet, "/api/v1/papers?limit=10&offset=0", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp savedPaperListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Papers, 1)
	assert.Equal(t, "Saved earlier", resp.Papers[0].Title)
	assert.Equal(t, 10, resp.Limit)
}

func TestListPapersHandler_PaginationDefaults(t *testing.T) {
	env := newTestServer(t)

	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodGet, "/api/v1/papers?limit=garbage", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp savedPaperListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.Limit)
	assert.Zero(t, resp.Offset)
}

func TestGetPaperHandler(t *testing.T) {
	t.Run("returns owned paper", func(t *testing.T) {
		env := newTestServer(t)

		saved, err := env.papers.Save(t.Context(), &domain.SavedPaper{
			UserID: testUserID,
			Title:  "Kept for later",
			PMID:   "222",
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodGet, "/api/v1/papers/"+saved.ID.String(), ""))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp savedPaperResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, saved.ID, resp.ID)
		assert.Equal(t, "Kept for later", resp.Title)
	})

	t.Run("other user's paper returns 404", func(t *testing.T) {
		env := newTestServer(t)

		saved, err := env.papers.Save(t.Context(), &domain.SavedPaper{
			UserID: uuid.New(),
			Title:  "Not yours",
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodGet, "/api/v1/papers/"+saved.ID.String(), ""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeletePaperHandler(t *testing.T) {
	t.Run("deletes owned paper", func(t *testing.T) {
		env := newTestServer(t)

		saved, err := env.papers.Save(t.Context(), &domain.SavedPaper{
			UserID: testUserID,
			Title:  "To be removed",
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodDelete, "/api/v1/papers/"+saved.ID.String(), ""))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, env.papers.papers)
	})

	t.Run("missing paper returns 404", func(t *testing.T) {
		env := newTestServer(t)

		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodDelete, "/api/v1/papers/"+uuid.NewString(), ""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("other user's paper returns 404", func(t *testing.T) {
		env := newTestServer(t)

		saved, err := env.papers.Save(t.Context(), &domain.SavedPaper{
			UserID: uuid.New(),
			Title:  "Not yours",
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodDelete, "/api/v1/papers/"+saved.ID.String(), ""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Len(t, env.papers.papers, 1)
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		env := newTestServer(t)

		rec := httptest.NewRecorder()
		env.server.Router().ServeHTTP(rec, authedJSONRequest(http.MethodDelete, "/api/v1/papers/not-a-uuid", ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
