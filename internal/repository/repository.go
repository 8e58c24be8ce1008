// Package repository provides data access interfaces and implementations
// for the research assistant service.
//
// # Overview
//
// This package defines repository interfaces and their PostgreSQL
// implementations following the repository pattern to abstract data
// persistence from business logic.
//
// # Repository Interfaces
//
// The package provides the following repository interfaces:
//
//   - SavedPaperRepository: Manages papers saved to user libraries
//   - UsageRepository: Manages per-user monthly search counters
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple
// goroutines. The underlying pgxpool handles connection pooling and
// synchronization.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package.
// Wrap database errors with context using fmt.Errorf with %w verb.
// Common errors include:
//
//   - domain.ErrNotFound: Resource does not exist
//   - domain.ErrAlreadyExists: Unique constraint violation
//   - domain.ErrInvalidInput: Invalid parameters provided
//
// # Transactions
//
// Use the DBTX interface to support both pool and transaction contexts.
// Pass a transaction from database.DB.WithTransaction for atomic operations.
package repository

import (
	"github.com/LoganNickels654/research-assistant-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
// Repository constructors accept DBTX so the same implementation works with a
// connection pool, a pgx.Tx, or a pgxmock pool in tests.
type DBTX = database.DBTX

// Listing pagination defaults and limits.
const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// applyPaginationDefaults normalizes limit and offset values for list queries.
// It clamps limit to [1, maxListLimit] and ensures offset >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultListLimit
	}
	if *limit > maxListLimit {
		*limit = maxListLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}
