// internal/facility/store.go
package facility

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"ecycle-workers/internal/common/database"
	"ecycle-workers/internal/common/errors"
)

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS facilities (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		capacity   INTEGER NOT NULL DEFAULT 0,
		lon        DOUBLE PRECISION NOT NULL,
		lat        DOUBLE PRECISION NOT NULL,
		contact    TEXT NOT NULL DEFAULT '',
		hours      TEXT NOT NULL DEFAULT '',
		verified   BOOLEAN NOT NULL DEFAULT FALSE,
		address    TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const listQuery = `
	SELECT id, name, capacity, lon, lat, contact, hours, verified, address
	FROM facilities
	ORDER BY id`

const upsertQuery = `
	INSERT INTO facilities (id, name, capacity, lon, lat, contact, hours, verified, address, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		capacity = EXCLUDED.capacity,
		lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		contact = EXCLUDED.contact,
		hours = EXCLUDED.hours,
		verified = EXCLUDED.verified,
		address = EXCLUDED.address,
		updated_at = NOW()`

// Store is the PostgreSQL repository for facilities.
type Store struct {
	pg *database.PostgresClient
}

func NewStore(pg *database.PostgresClient) *Store {
	return &Store{pg: pg}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pg.DB.ExecContext(ctx, schemaDDL); err != nil {
		return errors.NewQueryExecutionFailedError("ensure_facilities_schema", err)
	}
	return nil
}

// List returns every facility ordered by ID.
func (s *Store) List(ctx context.Context) ([]Facility, error) {
	rows, err := s.pg.DB.QueryContext(ctx, listQuery)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("list_facilities")
		}
		return nil, errors.NewQueryExecutionFailedError("list_facilities", err)
	}
	defer rows.Close()

	facilities := make([]Facility, 0)
	for rows.Next() {
		var f Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Capacity, &f.Lon, &f.Lat, &f.Contact, &f.Hours, &f.Verified, &f.Address); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan_facility", err)
		}
		facilities = append(facilities, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_facilities", err)
	}
	return facilities, nil
}

// Upsert inserts or updates facilities in one transaction and returns how many were written.
func (s *Store) Upsert(ctx context.Context, facilities []Facility) (int, error) {
	written := 0
	err := s.pg.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertQuery)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, f := range facilities {
			if f.ID == "" {
				return fmt.Errorf("facility %q has no id", f.Name)
			}
			if _, err := stmt.ExecContext(ctx, f.ID, f.Name, f.Capacity, f.Lon, f.Lat, f.Contact, f.Hours, f.Verified, f.Address); err != nil {
				return fmt.Errorf("upsert %s: %w", f.ID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("upsert_facilities", err)
	}
	return written, nil
}

// LoadSeed reads a JSON array of facilities.
func LoadSeed(path string) ([]Facility, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facility seed: %w", err)
	}
	var facilities []Facility
	if err := json.Unmarshal(data, &facilities); err != nil {
		return nil, fmt.Errorf("parse facility seed %s: %w", path, err)
	}
	return facilities, nil
}
