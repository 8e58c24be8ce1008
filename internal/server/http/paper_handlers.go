package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LoganNickels654/research-assistant-service/internal/auth"
	"github.com/LoganNickels654/research-assistant-service/internal/domain"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
	"github.com/LoganNickels654/research-assistant-service/internal/repository"
)

// savePaperRequest is the JSON body for POST /api/v1/papers.
type savePaperRequest struct {
	Title    string   `json:"title" validate:"required,min=1"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract"`
	Journal  string   `json:"journal"`
	Year     string   `json:"year"`
	PMID     string   `json:"pmid"`
}

// savePaperHandler adds a paper to the authenticated user's library.
func (s *Server) savePaperHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req savePaperRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	paper := &domain.SavedPaper{
		UserID:   userID,
		Title:    req.Title,
		Authors:  req.Authors,
		Abstract: req.Abstract,
		Journal:  req.Journal,
		Year:     req.Year,
		PMID:     req.PMID,
	}

	saved, err := s.savedPapers.Save(r.Context(), paper)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordPaperSaved()
	}
	paperLogger := observability.WithPaperContext(s.logger, saved.PMID)
	paperLogger.Info().
		Str("user_id", userID.String()).
		Str("paper_id", saved.ID.String()).
		Msg("paper saved to library")

	writeJSON(w, http.StatusCreated, toSavedPaperResponse(saved))
}

// listPapersHandler returns the authenticated user's library, newest first.
func (s *Server) listPapersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	filter := repository.SavedPaperFilter{
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	}
	if err := filter.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	papers, total, err := s.savedPapers.ListByUser(r.Context(), userID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, savedPaperListResponse{
		Papers: toSavedPaperResponses(papers),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// getPaperHandler returns a single saved paper from the user's library.
func (s *Server) getPaperHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	paperID, err := parseUUID(chi.URLParam(r, "paperID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid paper ID")
		return
	}

	paper, err := s.savedPapers.GetByID(r.Context(), userID, paperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSavedPaperResponse(paper))
}

// deletePaperHandler removes a paper from the authenticated user's library.
func (s *Server) deletePaperHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	paperID, err := parseUUID(chi.URLParam(r, "paperID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid paper ID")
		return
	}

	if err := s.savedPapers.Delete(r.Context(), userID, paperID); err != nil {
		writeDomainError(w, err)
		return
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("paper_id", paperID.String()).
		Msg("paper removed from library")

	w.WriteHeader(http.StatusNoContent)
}

// parseUUID parses a UUID from a URL parameter.
func parseUUID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}

// parseIntParam parses an integer query parameter, falling back to def on
// absence or garbage.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
