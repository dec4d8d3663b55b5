// internal/pickup/store.go
package pickup

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"ecycle-workers/internal/common/database"
	"ecycle-workers/internal/common/errors"
)

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS pickup_bookings (
		id                 TEXT PRIMARY KEY,
		user_id            TEXT NOT NULL DEFAULT '',
		user_email         TEXT NOT NULL,
		recycle_item       TEXT NOT NULL,
		recycle_item_price DOUBLE PRECISION NOT NULL,
		pickup_date        DATE NOT NULL,
		pickup_time        TEXT NOT NULL,
		facility           TEXT NOT NULL,
		full_name          TEXT NOT NULL,
		address            TEXT NOT NULL,
		phone              TEXT NOT NULL,
		status             TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const insertQuery = `
	INSERT INTO pickup_bookings (
		id, user_id, user_email, recycle_item, recycle_item_price, pickup_date, pickup_time,
		facility, full_name, address, phone, status, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const getQuery = `
	SELECT id, user_id, user_email, recycle_item, recycle_item_price, pickup_date, pickup_time,
		facility, full_name, address, phone, status, created_at
	FROM pickup_bookings
	WHERE id = $1`

// ErrNotFound is returned by Get for an unknown booking ID.
var ErrNotFound = stderrors.New("booking not found")

// Store is the PostgreSQL repository for pickup bookings.
type Store struct {
	pg *database.PostgresClient
}

func NewStore(pg *database.PostgresClient) *Store {
	return &Store{pg: pg}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pg.DB.ExecContext(ctx, schemaDDL); err != nil {
		return errors.NewQueryExecutionFailedError("ensure_pickup_schema", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.pg.DB.ExecContext(ctx, insertQuery,
		b.ID, b.UserID, b.UserEmail, b.RecycleItem, b.RecycleItemPrice, b.PickupDate, b.PickupTime,
		b.Facility, b.FullName, b.Address, b.Phone, b.Status, b.CreatedAt,
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewQueryTimeoutError("insert_pickup")
		}
		return errors.NewQueryExecutionFailedError("insert_pickup", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Booking, error) {
	var (
		b    Booking
		date time.Time
	)
	err := s.pg.DB.QueryRowContext(ctx, getQuery, id).Scan(
		&b.ID, &b.UserID, &b.UserEmail, &b.RecycleItem, &b.RecycleItemPrice, &date, &b.PickupTime,
		&b.Facility, &b.FullName, &b.Address, &b.Phone, &b.Status, &b.CreatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_pickup", err)
	}
	b.PickupDate = date.Format(DateLayout)
	return &b, nil
}
