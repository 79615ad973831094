package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/database"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// newTestDB opens an in-memory database with the full schema applied. A
// single connection keeps every query on the same in-memory instance.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db, zerolog.Nop()))

	t.Cleanup(func() { db.Close() })
	return db
}

func seedStable(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()

	repo := repository.NewStableRepository(db, zerolog.Nop())
	id, err := repo.Create(context.Background(), &domain.Stable{Name: name})
	require.NoError(t, err)
	return id
}

// seedRobot inserts a fully battle-ready robot and returns its id.
func seedRobot(t *testing.T, db *sql.DB, stableID int64, name string, elo int) int64 {
	t.Helper()

	weaponID := int64(1)
	repo := repository.NewRobotRepository(db, zerolog.Nop())
	id, err := repo.Create(context.Background(), &domain.Robot{
		StableID:       stableID,
		Name:           name,
		CurrentHP:      200,
		MaxHP:          200,
		CurrentShield:  50,
		MaxShield:      50,
		AttackPower:    50,
		YieldThreshold: 20,
		MainWeaponID:   &weaponID,
		ELO:            elo,
		League:         domain.LeagueBronze,
	})
	require.NoError(t, err)
	return id
}

// seedTeam persists a bronze team over two freshly seeded robots.
func seedTeam(t *testing.T, db *sql.DB, stableID int64, activeName, reserveName string, elo int) int64 {
	t.Helper()

	activeID := seedRobot(t, db, stableID, activeName, elo)
	reserveID := seedRobot(t, db, stableID, reserveName, elo)

	repo := repository.NewTeamRepository(db, zerolog.Nop())
	id, err := repo.Create(context.Background(), &domain.TagTeam{
		StableID:         stableID,
		ActiveRobotID:    activeID,
		ReserveRobotID:   reserveID,
		League:           domain.LeagueBronze,
		LeagueInstanceID: "bronze_1",
	})
	require.NoError(t, err)
	return id
}

func setRobotHP(t *testing.T, db *sql.DB, robotID int64, hp int) {
	t.Helper()

	_, err := db.Exec(`UPDATE robots SET current_hp = ? WHERE id = ?`, hp, robotID)
	require.NoError(t, err)
}
