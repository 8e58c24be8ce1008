package httpserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
)

// paperResponse is the JSON shape for a ranked search result.
type paperResponse struct {
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Abstract        string   `json:"abstract"`
	Journal         string   `json:"journal"`
	Year            string   `json:"year"`
	PMID            string   `json:"pmid"`
	SourceURL       string   `json:"source_url"`
	RelevanceScore  float64  `json:"relevance_score"`
	RelevanceReason string   `json:"relevance_reason,omitempty"`
}

// searchResponse is the JSON shape for a completed research question.
type searchResponse struct {
	Question string          `json:"question"`
	Papers   []paperResponse `json:"papers"`
	Count    int             `json:"count"`
}

// savedPaperResponse is the JSON shape for a library entry.
type savedPaperResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Abstract  string    `json:"abstract,omitempty"`
	Journal   string    `json:"journal,omitempty"`
	Year      string    `json:"year,omitempty"`
	PMID      string    `json:"pmid,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// savedPaperListResponse is the paginated JSON shape for a user's library.
type savedPaperListResponse struct {
	Papers []savedPaperResponse `json:"papers"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

func toPaperResponse(p *domain.Paper) paperResponse {
	authors := p.Authors
	if authors == nil {
		authors = []string{}
	}
	return paperResponse{
		Title:           p.Title,
		Authors:         authors,
		Abstract:        p.Abstract,
		Journal:         p.Journal,
		Year:            p.Year,
		PMID:            p.PMID,
		SourceURL:       p.SourceURL(),
		RelevanceScore:  p.RelevanceScore,
		RelevanceReason: p.RelevanceReason,
	}
}

func toPaperResponses(papers []*domain.Paper) []paperResponse {
	out := make([]paperResponse, 0, len(papers))
	for _, p := range papers {
		out = append(out, toPaperResponse(p))
	}
	return out
}

func toSavedPaperResponse(p *domain.SavedPaper) savedPaperResponse {
	authors := p.Authors
	if authors == nil {
		authors = []string{}
	}
	resp := savedPaperResponse{
		ID:        p.ID,
		Title:     p.Title,
		Authors:   authors,
		Abstract:  p.Abstract,
		Journal:   p.Journal,
		Year:      p.Year,
		PMID:      p.PMID,
		CreatedAt: p.CreatedAt,
	}
	if p.PMID != "" {
		paper := domain.Paper{PMID: p.PMID}
		resp.SourceURL = paper.SourceURL()
	}
	return resp
}

func toSavedPaperResponses(papers []*domain.SavedPaper) []savedPaperResponse {
	out := make([]savedPaperResponse, 0, len(papers))
	for _, p := range papers {
		out = append(out, toSavedPaperResponse(p))
	}
	return out
}
