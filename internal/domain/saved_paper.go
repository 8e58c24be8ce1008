package domain

import (
	"time"

	"github.com/google/uuid"
)

// SavedPaper is a paper a user bookmarked from a search result.
type SavedPaper struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Authors   []string
	Abstract  string
	Journal   string
	Year      string
	PMID      string
	CreatedAt time.Time
}

// UsageCounter tracks how many searches a user has spent in a billing period.
// Period is the first day of the month in YYYY-MM format.
type UsageCounter struct {
	UserID       uuid.UUID
	Period       string
	SearchesUsed int
	UpdatedAt    time.Time
}

// PeriodFor formats t as the usage counter period key.
func PeriodFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}
