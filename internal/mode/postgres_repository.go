package mode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citynav/citynav/internal/city"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// Overrides live in the mode_overrides table:
//
//	CREATE TABLE mode_overrides (
//		city_id    TEXT        NOT NULL,
//		mode       TEXT        NOT NULL,
//		override   JSONB       NOT NULL,
//		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//		PRIMARY KEY (city_id, mode)
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL override repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List retrieves every stored override, oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]StoredOverride, error) {
	query := `
		SELECT city_id, mode, override, updated_at
		FROM mode_overrides
		ORDER BY updated_at ASC, city_id ASC, mode ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Get retrieves the override for a city and mode.
func (r *PostgresRepository) Get(ctx context.Context, id city.ID, m Mode) (*StoredOverride, error) {
	query := `
		SELECT city_id, mode, override, updated_at
		FROM mode_overrides
		WHERE city_id = $1 AND mode = $2
	`

	o, err := scanOverride(r.pool.QueryRow(ctx, query, string(id), string(m)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}
	return o, nil
}

// Upsert merges the override onto the stored one inside a transaction.
func (r *PostgresRepository) Upsert(ctx context.Context, o StoredOverride) (*StoredOverride, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	merged := o.Override
	existing, err := scanOverride(tx.QueryRow(ctx, `
		SELECT city_id, mode, override, updated_at
		FROM mode_overrides
		WHERE city_id = $1 AND mode = $2
		FOR UPDATE
	`, string(o.City), string(o.Mode)))
	switch {
	case err == nil:
		merged = existing.Override.Merge(o.Override)
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, err
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding override: %w", err)
	}

	stored, err := scanOverride(tx.QueryRow(ctx, `
		INSERT INTO mode_overrides (city_id, mode, override, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (city_id, mode) DO UPDATE
		SET override = EXCLUDED.override, updated_at = EXCLUDED.updated_at
		RETURNING city_id, mode, override, updated_at
	`, string(o.City), string(o.Mode), payload))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return stored, nil
}

// Delete removes the override for a city and mode.
func (r *PostgresRepository) Delete(ctx context.Context, id city.ID, m Mode) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM mode_overrides WHERE city_id = $1 AND mode = $2`, string(id), string(m))
	return err
}

func scanOverride(row pgx.Row) (*StoredOverride, error) {
	var (
		o       StoredOverride
		cityID  string
		modeStr string
		payload []byte
	)
	if err := row.Scan(&cityID, &modeStr, &payload, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.City = city.ID(cityID)
	o.Mode = Mode(modeStr)
	if err := json.Unmarshal(payload, &o.Override); err != nil {
		return nil, fmt.Errorf("decoding override %s/%s: %w", cityID, modeStr, err)
	}
	return &o, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
