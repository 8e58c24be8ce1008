package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LoganNickels654/research-assistant-service/internal/auth"
	"github.com/LoganNickels654/research-assistant-service/internal/domain"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
)

// maxRequestBodySize caps request bodies at 1 MB.
const maxRequestBodySize = 1 << 20

// searchRequest is the JSON body for POST /api/v1/search.
// A missing or non-positive max_papers falls back to the configured default.
type searchRequest struct {
	Question  string `json:"question" validate:"required,min=1"`
	MaxPapers int    `json:"max_papers"`
}

// searchHandler runs the research pipeline for an authenticated question.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req searchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Question) > s.search.QuestionMaxLength {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("question must be at most %d characters", s.search.QuestionMaxLength))
		return
	}

	maxPapers := req.MaxPapers
	if maxPapers <= 0 {
		maxPapers = s.search.DefaultMaxPapers
	}
	if maxPapers > s.search.MaxPapersLimit {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("max_papers must be at most %d", s.search.MaxPapersLimit))
		return
	}

	if err := s.quota.Consume(r.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			if s.metrics != nil {
				s.metrics.RecordQuotaExceeded()
			}
		}
		writeDomainError(w, err)
		return
	}

	logger := observability.WithRequestContext(s.logger,
		observability.RequestIDFromContext(r.Context()), userID.String())
	logger.Info().
		Str("question", req.Question).
		Int("max_papers", maxPapers).
		Msg("processing research question")

	if s.metrics != nil {
		s.metrics.RecordQuestionReceived()
	}
	start := time.Now()

	papers := s.pipeline.ProcessResearchQuestion(r.Context(), req.Question, maxPapers)

	if s.metrics != nil {
		s.metrics.RecordQuestionCompleted(len(papers), time.Since(start).Seconds())
	}
	logger.Info().
		Int("papers", len(papers)).
		Dur("duration", time.Since(start)).
		Msg("research question completed")

	writeJSON(w, http.StatusOK, searchResponse{
		Question: req.Question,
		Papers:   toPaperResponses(papers),
		Count:    len(papers),
	})
}

// decodeJSONBody reads and decodes a JSON request body with a size cap.
func decodeJSONBody(r *http.Request, v interface{}) error {
	body := io.LimitReader(r.Body, maxRequestBodySize)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
