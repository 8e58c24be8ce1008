package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
)

// SavedPaperRepository manages papers saved to user libraries.
type SavedPaperRepository interface {
	// Save inserts a paper into the user's library.
	// A user may save a given PMID only once; saving it again returns
	// domain.ErrAlreadyExists.
	// Returns the saved paper with its assigned ID and creation time.
	Save(ctx context.Context, paper *domain.SavedPaper) (*domain.SavedPaper, error)

	// ListByUser retrieves the user's saved papers, newest first.
	// Returns the matching papers and the total count for pagination.
	ListByUser(ctx context.Context, userID uuid.UUID, filter SavedPaperFilter) ([]*domain.SavedPaper, int64, error)

	// GetByID retrieves a saved paper owned by the given user.
	// Returns domain.ErrNotFound if no matching paper exists.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error)

	// Delete removes a saved paper owned by the given user.
	// Returns domain.ErrNotFound if no matching paper exists.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// SavedPaperFilter specifies criteria for listing saved papers.
type SavedPaperFilter struct {
	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks the filter values and sets defaults.
func (f *SavedPaperFilter) Validate() error {
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
