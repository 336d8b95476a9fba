//go:build integration

package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Dosada05/double-elimination/db"
	"github.com/Dosada05/double-elimination/models"
)

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("tournament"),
		postgres.WithUsername("tournament"),
		postgres.WithPassword("tournament"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.EnsureSchema(ctx, conn))
	return conn
}

func TestPostgresStateRepository(t *testing.T) {
	conn := setupPostgres(t)
	repo := NewPostgresStateRepository(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var cfg models.TournamentConfig
	assert.ErrorIs(t, repo.Get(ctx, KeyTournamentConfig, &cfg), ErrStateNotFound)

	want := models.DefaultTournamentConfig()
	require.NoError(t, repo.Put(ctx, KeyTournamentConfig, want))
	want.MatchesInRound = 3
	require.NoError(t, repo.Put(ctx, KeyTournamentConfig, want), "put is an upsert")

	require.NoError(t, repo.Get(ctx, KeyTournamentConfig, &cfg))
	assert.Equal(t, want, cfg)

}

func TestPostgresStateRepository_Apply(t *testing.T) {
	conn := setupPostgres(t)
	repo := NewPostgresStateRepository(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, repo.Put(ctx, KeyTournamentWinner, "a"))
	require.NoError(t, repo.Apply(ctx, StateBatch{
		Puts:    map[string]interface{}{KeyTournamentConfig: models.DefaultTournamentConfig()},
		Deletes: []string{KeyTournamentWinner, KeyTournamentFinal},
	}))

	var cfg models.TournamentConfig
	require.NoError(t, repo.Get(ctx, KeyTournamentConfig, &cfg))
	var winner string
	assert.ErrorIs(t, repo.Get(ctx, KeyTournamentWinner, &winner), ErrStateNotFound)
}

func TestPostgresStateRepository_ApplyRollsBack(t *testing.T) {
	conn := setupPostgres(t)
	repo := NewPostgresStateRepository(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// jsonb rejects \u0000, so one upsert fails inside the transaction.
	err := repo.Apply(ctx, StateBatch{Puts: map[string]interface{}{
		KeyTournamentConfig:    models.DefaultTournamentConfig(),
		KeyTournamentStandings: "\x00",
	}})
	require.Error(t, err)

	var cfg models.TournamentConfig
	assert.ErrorIs(t, repo.Get(ctx, KeyTournamentConfig, &cfg), ErrStateNotFound)
}

func TestPostgresStateRepository_SchemaMissing(t *testing.T) {
	conn := setupPostgres(t)
	_, err := conn.Exec(`DROP TABLE tournament_state`)
	require.NoError(t, err)

	repo := NewPostgresStateRepository(conn)
	assert.ErrorIs(t, repo.Put(context.Background(), KeyTournamentWinner, "a"), ErrStateSchemaMissing)
}
