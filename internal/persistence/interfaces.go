// Package persistence defines the storage contracts for transactional
// rental history. The modeling core only reads; writes happen through the
// ingest command, which mirrors snapshot exports into PostgreSQL.
package persistence

import (
	"context"
	"time"

	"github.com/Samer-Is/RPI/internal/domain"
)

// TimeRange bounds a historical query, inclusive on both ends.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ContractRepo stores and retrieves rental contracts keyed by start time.
type ContractRepo interface {
	// InsertBatch writes contracts atomically; a duplicate contract ID
	// fails the whole batch.
	InsertBatch(ctx context.Context, contracts []domain.Transaction) error

	// ListBetween returns contracts whose start timestamp falls inside tr,
	// ordered by start time ascending so downstream feature construction
	// sees a chronological stream.
	ListBetween(ctx context.Context, tr TimeRange) ([]domain.Transaction, error)

	// LatestStart reports the most recent contract start time, or a zero
	// time when the table is empty.
	LatestStart(ctx context.Context) (time.Time, error)
}
