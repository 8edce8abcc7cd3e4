// Package postgres implements the persistence contracts against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Samer-Is/RPI/internal/domain"
	"github.com/Samer-Is/RPI/internal/persistence"
)

// contractsRepo implements ContractRepo for PostgreSQL.
type contractsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewContractsRepo creates a PostgreSQL contract repository.
func NewContractsRepo(db *sqlx.DB, timeout time.Duration) persistence.ContractRepo {
	return &contractsRepo{
		db:      db,
		timeout: timeout,
	}
}

// InsertBatch writes contracts in one transaction. A duplicate contract ID
// rolls back the whole batch.
func (r *contractsRepo) InsertBatch(ctx context.Context, contracts []domain.Transaction) error {
	if len(contracts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(contracts)/100+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rental_contracts (id, pickup_branch_id, category_id, daily_rate_amount, start_ts, duration_days)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range contracts {
		_, err = stmt.ExecContext(ctx,
			c.ID, c.BranchID, c.CategoryID, c.DailyRate, c.Start, c.DurationDays)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return fmt.Errorf("duplicate contract %d: %w", c.ID, err)
			}
			return fmt.Errorf("failed to insert contract %d: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// ListBetween retrieves contracts starting inside the range, chronologically
// ordered.
func (r *contractsRepo) ListBetween(ctx context.Context, tr persistence.TimeRange) ([]domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, pickup_branch_id, category_id, daily_rate_amount, start_ts, duration_days
		FROM rental_contracts
		WHERE start_ts >= $1 AND start_ts <= $2
		ORDER BY start_ts ASC`

	rows, err := r.db.QueryxContext(ctx, query, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []domain.Transaction
	for rows.Next() {
		var c domain.Transaction
		if err := rows.StructScan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contracts: %w", err)
	}

	return contracts, nil
}

// LatestStart reports the newest contract start time in the table.
func (r *contractsRepo) LatestStart(ctx context.Context) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var latest time.Time
	err := r.db.QueryRowxContext(ctx,
		`SELECT start_ts FROM rental_contracts ORDER BY start_ts DESC LIMIT 1`).
		Scan(&latest)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest contract: %w", err)
	}

	return latest, nil
}
