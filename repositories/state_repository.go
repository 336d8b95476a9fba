package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

// Ключи хранилища состояния турнира.
const (
	KeyTournamentConfig       = "tournamentConfig"
	KeyTournamentParticipants = "tournamentParticipants"
	KeyTournamentMatches      = "tournamentMatches"
	KeyTournamentStandings    = "tournamentStandings"
	KeyTournamentFinal        = "tournamentFinal"
	KeyTournamentWinner       = "tournamentWinner"
	KeyTournamentRunState     = "tournamentRunState"
)

var (
	ErrStateNotFound      = errors.New("state key not found")
	ErrStateSchemaMissing = errors.New("tournament_state table does not exist")
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// StateBatch is a set of writes applied all together or not at all.
// Deleting a missing key is not an error.
type StateBatch struct {
	Puts    map[string]interface{}
	Deletes []string
}

// StateRepository is a small key/value store for the single active tournament.
// Values are stored as JSON.
type StateRepository interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Put(ctx context.Context, key string, value interface{}) error
	Apply(ctx context.Context, batch StateBatch) error
}

// encodeBatch marshals every value of the batch before any write starts.
func encodeBatch(ctx context.Context, puts map[string]interface{}) (map[string][]byte, error) {
	type encoded struct {
		key string
		raw []byte
	}
	results := make([]encoded, len(puts))

	g, _ := errgroup.WithContext(ctx)
	i := 0
	for key, value := range puts {
		slot := &results[i]
		i++
		g.Go(func() error {
			raw, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to encode state %s: %w", key, err)
			}
			*slot = encoded{key: key, raw: raw}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(results))
	for _, e := range results {
		out[e.key] = e.raw
	}
	return out, nil
}

type postgresStateRepository struct {
	db SQLExecutor
}

func NewPostgresStateRepository(db SQLExecutor) StateRepository {
	return &postgresStateRepository{db: db}
}

func (r *postgresStateRepository) Get(ctx context.Context, key string, dst interface{}) error {
	query := `SELECT value FROM tournament_state WHERE key = $1`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrStateNotFound, key)
		}
		return r.handleStateError(err, key)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode state %s: %w", key, err)
	}
	return nil
}

func (r *postgresStateRepository) Put(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state %s: %w", key, err)
	}

	query := `
		INSERT INTO tournament_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, key, raw); err != nil {
		return r.handleStateError(err, key)
	}
	return nil
}

// Apply runs the batch in one transaction. When the repository was built on
// a *sql.Tx the caller owns commit and rollback.
func (r *postgresStateRepository) Apply(ctx context.Context, batch StateBatch) (err error) {
	encoded, err := encodeBatch(ctx, batch.Puts)
	if err != nil {
		return err
	}

	tx, isExternalTx := r.db.(*sql.Tx)
	if !isExternalTx {
		conn, ok := r.db.(*sql.DB)
		if !ok {
			return fmt.Errorf("state batch needs *sql.DB or *sql.Tx, got %T", r.db)
		}
		tx, err = conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback()
				panic(p)
			} else if err != nil {
				_ = tx.Rollback()
			} else if cErr := tx.Commit(); cErr != nil {
				err = fmt.Errorf("failed to commit state batch: %w", cErr)
			}
		}()
	}

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO tournament_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return r.handleStateError(err, "batch")
	}
	defer upsert.Close()

	for key, raw := range encoded {
		if _, err = upsert.ExecContext(ctx, key, raw); err != nil {
			return r.handleStateError(err, key)
		}
	}
	for _, key := range batch.Deletes {
		if _, err = tx.ExecContext(ctx, `DELETE FROM tournament_state WHERE key = $1`, key); err != nil {
			return r.handleStateError(err, key)
		}
	}
	return nil
}

func (r *postgresStateRepository) handleStateError(err error, key string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return ErrStateSchemaMissing
	}
	return fmt.Errorf("state %s: %w", key, err)
}
