package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"

	"github.com/rs/zerolog"
)

type StableRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStableRepository(sqlDB *sql.DB, logger zerolog.Logger) *StableRepository {
	return &StableRepository{db: sqlDB, logger: logger}
}

// GetByID returns the stable, or (nil, nil) when it does not exist.
func (r *StableRepository) GetByID(ctx context.Context, id int64) (*domain.Stable, error) {
	var s domain.Stable
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, currency, prestige, created_at, updated_at
		FROM stables WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Currency, &s.Prestige, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StableRepository) Create(ctx context.Context, stable *domain.Stable) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stables (name, currency, prestige, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		stable.Name, stable.Currency, stable.Prestige, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
