package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
)

// Compile-time interface verification.
var _ UsageRepository = (*PgUsageRepository)(nil)

// PgUsageRepository is a PostgreSQL implementation of UsageRepository.
type PgUsageRepository struct {
	db DBTX
}

// NewPgUsageRepository creates a new PostgreSQL usage repository.
func NewPgUsageRepository(db DBTX) *PgUsageRepository {
	return &PgUsageRepository{db: db}
}

// Get retrieves the usage counter for a user and period.
func (r *PgUsageRepository) Get(ctx context.Context, userID uuid.UUID, period string) (*domain.UsageCounter, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if period == "" {
		return nil, domain.NewValidationError("period", "period is required")
	}

	query := `
		SELECT user_id, period, searches_used, updated_at
		FROM usage_counters
		WHERE user_id = $1 AND period = $2`

	var counter domain.UsageCounter
	err := r.db.QueryRow(ctx, query, userID, period).Scan(
		&counter.UserID,
		&counter.Period,
		&counter.SearchesUsed,
		&counter.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No usage recorded yet this period.
			return &domain.UsageCounter{UserID: userID, Period: period}, nil
		}
		return nil, fmt.Errorf("failed to get usage counter: %w", err)
	}

	return &counter, nil
}

// Increment adds one search to the user's counter for the period.
func (r *PgUsageRepository) Increment(ctx context.Context, userID uuid.UUID, period string) (int, error) {
	if userID == uuid.Nil {
		return 0, domain.NewValidationError("user_id", "user ID is required")
	}
	if period == "" {
		return 0, domain.NewValidationError("period", "period is required")
	}

	query := `
		INSERT INTO usage_counters (user_id, period, searches_used, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id, period) DO UPDATE SET
			searches_used = usage_counters.searches_used + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING searches_used`

	var used int
	err := r.db.QueryRow(ctx, query, userID, period, time.Now().UTC()).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage counter: %w", err)
	}

	return used, nil
}
