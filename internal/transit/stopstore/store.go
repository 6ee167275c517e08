// Package stopstore is an offline transit stop index in SQLite, filled from
// GTFS stops.txt files.
package stopstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/transit"
)

// ProviderName identifies this transit provider.
const ProviderName = "stopstore"

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed stop index.
type Store struct {
	db      *sql.DB
	logger  zerolog.Logger
	writeMu sync.Mutex
}

// Open opens (or creates) the index at path and ensures the schema.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("stop index opened")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name returns the provider name.
func (s *Store) Name() string {
	return ProviderName
}

// FindStops returns the stops inside the bounding box spanning radius
// meters around loc. Exact radius filtering happens in transit.Group.
func (s *Store) FindStops(ctx context.Context, loc geo.Location, radius float64) ([]transit.Stop, error) {
	box := geo.Around(loc, radius)
	lo, hi := box.Min(), box.Max()

	rows, err := s.db.QueryContext(ctx, `
		SELECT stop_id, name, stop_type, lat, lng, routes, operator
		FROM stops
		WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?
	`, lo.Lat, hi.Lat, lo.Lng, hi.Lng)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	var stops []transit.Stop
	for rows.Next() {
		var (
			st       transit.Stop
			kind     string
			routes   string
			lat, lng float64
		)
		if err := rows.Scan(&st.ID, &st.Name, &kind, &lat, &lng, &routes, &st.Operator); err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		st.Type = transit.ParseStopType(kind)
		st.Location = geo.Location{Lat: lat, Lng: lng, Name: st.Name}
		if routes != "" {
			st.Routes = strings.Split(routes, ";")
		}
		stops = append(stops, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stops, nil
}

// Upsert inserts or replaces stops in a single transaction.
func (s *Store) Upsert(ctx context.Context, stops []transit.Stop) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stops (stop_id, name, stop_type, lat, lng, routes, operator)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (stop_id) DO UPDATE SET
			name = excluded.name,
			stop_type = excluded.stop_type,
			lat = excluded.lat,
			lng = excluded.lng,
			routes = excluded.routes,
			operator = excluded.operator
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stops {
		if _, err := stmt.ExecContext(ctx,
			st.ID, st.Name, string(st.Type), st.Location.Lat, st.Location.Lng,
			strings.Join(st.Routes, ";"), st.Operator,
		); err != nil {
			return 0, fmt.Errorf("upserting stop %s: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Info().Int("stops", len(stops)).Msg("stops upserted")
	return len(stops), nil
}

// Count returns the number of indexed stops.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stops`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Ensure Store implements transit.Provider.
var _ transit.Provider = (*Store)(nil)
