package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
)

// Compile-time interface verification.
var _ SavedPaperRepository = (*PgSavedPaperRepository)(nil)

// PgSavedPaperRepository is a PostgreSQL implementation of SavedPaperRepository.
type PgSavedPaperRepository struct {
	db DBTX
}

// NewPgSavedPaperRepository creates a new PostgreSQL saved paper repository.
func NewPgSavedPaperRepository(db DBTX) *PgSavedPaperRepository {
	return &PgSavedPaperRepository{db: db}
}

// Save inserts a paper into the user's library.
func (r *PgSavedPaperRepository) Save(ctx context.Context, paper *domain.SavedPaper) (*domain.SavedPaper, error) {
	if paper == nil {
		return nil, domain.NewValidationError("paper", "paper cannot be nil")
	}
	if paper.UserID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if paper.Title == "" {
		return nil, domain.NewValidationError("title", "title is required")
	}

	if paper.ID == uuid.Nil {
		paper.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO saved_papers (
			id, user_id, title, authors, abstract, journal, year, pmid, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		paper.ID,
		paper.UserID,
		paper.Title,
		paper.Authors,
		paper.Abstract,
		paper.Journal,
		paper.Year,
		paper.PMID,
		now,
	).Scan(&paper.ID, &paper.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewAlreadyExistsError("saved paper", paper.PMID)
		}
		return nil, fmt.Errorf("failed to save paper: %w", err)
	}

	return paper, nil
}

// ListByUser retrieves the user's saved papers, newest first.
func (r *PgSavedPaperRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter SavedPaperFilter) ([]*domain.SavedPaper, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, domain.NewValidationError("user_id", "user ID is required")
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM saved_papers WHERE user_id = $1`
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count saved papers: %w", err)
	}

	query := `
		SELECT id, user_id, title, authors, abstract, journal, year, pmid, created_at
		FROM saved_papers
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list saved papers: %w", err)
	}
	defer rows.Close()

	papers := make([]*domain.SavedPaper, 0, filter.Limit)
	for rows.Next() {
		paper, err := scanSavedPaper(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan saved paper: %w", err)
		}
		papers = append(papers, paper)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating saved papers: %w", err)
	}

	return papers, totalCount, nil
}

// GetByID retrieves a saved paper owned by the given user.
func (r *PgSavedPaperRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error) {
	query := `
		SELECT id, user_id, title, authors, abstract, journal, year, pmid, created_at
		FROM saved_papers
		WHERE user_id = $1 AND id = $2`

	row := r.db.QueryRow(ctx, query, userID, id)
	paper, err := scanSavedPaper(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("saved paper", id.String())
		}
		return nil, fmt.Errorf("failed to get saved paper: %w", err)
	}

	return paper, nil
}

// Delete removes a saved paper owned by the given user.
func (r *PgSavedPaperRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM saved_papers WHERE user_id = $1 AND id = $2`

	result, err := r.db.Exec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved paper: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("saved paper", id.String())
	}

	return nil
}

// scanSavedPaper scans a single row into a SavedPaper.
func scanSavedPaper(row pgx.Row) (*domain.SavedPaper, error) {
	var paper domain.SavedPaper
	err := row.Scan(
		&paper.ID,
		&paper.UserID,
		&paper.Title,
		&paper.Authors,
		&paper.Abstract,
		&paper.Journal,
		&paper.Year,
		&paper.PMID,
		&paper.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &paper, nil
}
