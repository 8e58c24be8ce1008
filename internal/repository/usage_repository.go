package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
)

// UsageRepository manages per-user monthly search counters.
type UsageRepository interface {
	// Get retrieves the usage counter for a user and period ("YYYY-MM").
	// A user with no recorded usage for the period gets a zero counter,
	// not an error.
	Get(ctx context.Context, userID uuid.UUID, period string) (*domain.UsageCounter, error)

	// Increment adds one search to the user's counter for the period,
	// creating the row if it does not exist, and returns the new count.
	Increment(ctx context.Context, userID uuid.UUID, period string) (int, error)
}
