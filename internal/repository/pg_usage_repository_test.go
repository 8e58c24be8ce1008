package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
)

func TestPgUsageRepository_Get(t *testing.T) {
	t.Run("returns counter when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUsageRepository(mock)
		ctx := context.Background()

		userID := uuid.New()
		now := time.Now().UTC()

		mock.ExpectQuery(`SELECT user_id, period, searches_used, updated_at`).
			WithArgs(userID, "2026-08").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "period", "searches_used", "updated_at"}).
				AddRow(userID, "2026-08", 42, now))

		counter, err := repo.Get(ctx, userID, "2026-08")
		require.NoError(t, err)
		assert.Equal(t, 42, counter.SearchesUsed)
		assert.Equal(t, "2026-08", counter.Period)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero counter when no usage recorded", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUsageRepository(mock)
		ctx := context.Background()

		userID := uuid.New()

		mock.ExpectQuery(`SELECT user_id, period, searches_used, updated_at`).
			WithArgs(userID, "2026-08").
			WillReturnError(pgx.ErrNoRows)

		counter, err := repo.Get(ctx, userID, "2026-08")
		require.NoError(t, err)
		assert.Equal(t, 0, counter.SearchesUsed)
		assert.Equal(t, userID, counter.UserID)
		assert.Equal(t, "2026-08", counter.Period)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects empty period", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUsageRepository(mock)

		_, err = repo.Get(context.Background(), uuid.New(), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgUsageRepository_Increment(t *testing.T) {
	t.Run("creates row on first search of the period", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUsageRepository(mock)
		ctx := context.Background()

		userID := uuid.New()

		mock.ExpectQuery(`INSERT INTO usage_counters`).
			WithArgs(userID, "2026-08", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"searches_used"}).AddRow(1))

		used, err := repo.Increment(ctx, userID, "2026-08")
		require.NoError(t, err)
		assert.Equal(t, 1, used)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increments existing counter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUsageRepository(mock)
		ctx := context.Background()

		userID := uuid.New()

		mock.ExpectQuery(`INSERT INTO usage_counters`).
			WithArgs(userID, "2026-08", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"searches_used"}).AddRow(7))

		used, err := repo.Increment(ctx, userID, "2026-08")
		require.NoError(t, err)
		assert.Equal(t, 7, used)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects nil user id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUsageRepository(mock)

		_, err = repo.Increment(context.Background(), uuid.Nil, "2026-08")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}
