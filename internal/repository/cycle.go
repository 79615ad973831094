package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// CycleRepository tracks the monotonically increasing batch-processing
// cycle number that keys the audit log.
type CycleRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCycleRepository(sqlDB *sql.DB, logger zerolog.Logger) *CycleRepository {
	return &CycleRepository{db: sqlDB, logger: logger}
}

func (r *CycleRepository) Current(ctx context.Context) (int64, error) {
	var cycle int64
	err := r.db.QueryRowContext(ctx,
		`SELECT total_cycles FROM cycle_metadata WHERE id = 1`).Scan(&cycle)
	if err != nil {
		return 0, err
	}
	return cycle, nil
}

// Increment advances the cycle counter and returns the new value.
func (r *CycleRepository) Increment(ctx context.Context) (int64, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cycle_metadata SET total_cycles = total_cycles + 1 WHERE id = 1`)
	if err != nil {
		return 0, err
	}
	return r.Current(ctx)
}
