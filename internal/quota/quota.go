// Package quota enforces per-user monthly search allowances.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
	"github.com/LoganNickels654/research-assistant-service/internal/repository"
)

// DefaultMonthlySearches is the allowance used when none is configured.
const DefaultMonthlySearches = 100

// Service checks and consumes per-user monthly search allowances.
// Counters are keyed by calendar month in UTC, so allowances reset
// implicitly at month boundaries.
type Service struct {
	usage   repository.UsageRepository
	limit   int
	nowFunc func() time.Time
	logger  zerolog.Logger
}

// NewService creates a quota service with the given monthly limit.
func NewService(usage repository.UsageRepository, limit int, logger zerolog.Logger) *Service {
	if limit <= 0 {
		limit = DefaultMonthlySearches
	}
	return &Service{
		usage:   usage,
		limit:   limit,
		nowFunc: time.Now,
		logger:  logger.With().Str("component", "quota").Logger(),
	}
}

// Consume records one search against the user's current-month allowance.
// Returns domain.ErrQuotaExceeded (via QuotaExceededError) when the
// allowance is already exhausted; the counter is not incremented in
// that case.
func (s *Service) Consume(ctx context.Context, userID uuid.UUID) error {
	period := domain.PeriodFor(s.nowFunc())

	counter, err := s.usage.Get(ctx, userID, period)
	if err != nil {
		return fmt.Errorf("checking quota: %w", err)
	}

	if counter.SearchesUsed >= s.limit {
		s.logger.Warn().
			Str("user_id", userID.String()).
			Str("period", period).
			Int("used", counter.SearchesUsed).
			Int("limit", s.limit).
			Msg("monthly search quota exhausted")
		return domain.NewQuotaExceededError(userID.String(), s.limit)
	}

	used, err := s.usage.Increment(ctx, userID, period)
	if err != nil {
		return fmt.Errorf("consuming quota: %w", err)
	}

	s.logger.Debug().
		Str("user_id", userID.String()).
		Str("period", period).
		Int("used", used).
		Int("limit", s.limit).
		Msg("search quota consumed")

	return nil
}

// Remaining reports how many searches the user has left this month.
func (s *Service) Remaining(ctx context.Context, userID uuid.UUID) (int, error) {
	period := domain.PeriodFor(s.nowFunc())

	counter, err := s.usage.Get(ctx, userID, period)
	if err != nil {
		return 0, fmt.Errorf("checking quota: %w", err)
	}

	remaining := s.limit - counter.SearchesUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
