// internal/facility/facility_test.go
package facility

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ecycle-workers/internal/common/database"
	apperrors "ecycle-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []Facility {
	return []Facility{
		{ID: "b", Name: "Noida", Lon: 77.3031, Lat: 28.5857, Verified: true},
		{ID: "a", Name: "Mumbai", Lon: 72.8796, Lat: 19.0771, Verified: false},
		{ID: "c", Name: "Bengaluru", Lon: 77.672, Lat: 12.9845, Verified: true},
		{ID: "d", Name: "Mumbai twin", Lon: 72.8796, Lat: 19.0771, Verified: true},
	}
}

// ==========================
// Distance & Ranking Tests
// ==========================

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 111.195, DistanceKm(Point{0, 0}, Point{0, 1}), 0.01)
	assert.InDelta(t, 306.548, DistanceKm(DefaultOrigin, Point{Lon: 72.8796, Lat: 19.0771}), 0.01)
	assert.Zero(t, DistanceKm(DefaultOrigin, DefaultOrigin))

	a, b := Point{77.3031, 28.5857}, Point{77.672, 12.9845}
	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
}

func TestNearest_SortsAndBreaksTiesByID(t *testing.T) {
	got := Nearest(sample(), DefaultOrigin, Filter{})

	require.Len(t, got, 4)
	assert.Equal(t, []string{"a", "d", "c", "b"}, ids(got))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, *got[i-1].DistanceKm, *got[i].DistanceKm)
	}
}

func TestNearest_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "verified only", filter: Filter{VerifiedOnly: true}, want: []string{"d", "c", "b"}},
		{name: "max distance", filter: Filter{MaxDistanceKm: km(400)}, want: []string{"a", "d"}},
		{name: "limit", filter: Filter{Limit: 1}, want: []string{"a"}},
		{name: "combined", filter: Filter{VerifiedOnly: true, Limit: 2}, want: []string{"d", "c"}},
		{name: "nothing in range", filter: Filter{MaxDistanceKm: km(1)}, want: []string{}},
		{name: "zero distance is a filter", filter: Filter{MaxDistanceKm: km(0)}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Nearest(sample(), DefaultOrigin, tt.filter)))
		})
	}
}

func TestNearest_ZeroDistanceKeepsFacilitiesAtOrigin(t *testing.T) {
	mumbai := Point{Lon: 72.8796, Lat: 19.0771}

	got := Nearest(sample(), mumbai, Filter{MaxDistanceKm: km(0)})

	assert.Equal(t, []string{"a", "d"}, ids(got))
}

func TestNearest_DoesNotMutateInput(t *testing.T) {
	in := sample()
	Nearest(in, DefaultOrigin, Filter{})

	assert.Equal(t, "b", in[0].ID)
	assert.Nil(t, in[0].DistanceKm)
}

func km(v float64) *float64 { return &v }

func ids(fs []Facility) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.ID)
	}
	return out
}

// ==========================
// Store Tests
// ==========================

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(database.NewPostgresFromDB(db)), mock
}

func TestStore_List(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "lon", "lat", "contact", "hours", "verified", "address"}).
		AddRow("fac-001", "Mysuru E-Waste Solutions", 140, 76.6394, 12.2958, "08212345678", "9:00 AM - 6:00 PM", true, "Hebbal").
		AddRow("fac-002", "Mangalore Green Recyclers", 120, 74.856, 12.9141, "08242456789", "9:30 AM - 6:00 PM", false, "Panambur")
	mock.ExpectQuery("SELECT id, name, capacity").WillReturnRows(rows)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Mysuru E-Waste Solutions", got[0].Name)
	assert.Equal(t, 140, got[0].Capacity)
	assert.False(t, got[1].Verified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, name, capacity").WillReturnError(errors.New("relation does not exist"))

	_, err := store.List(context.Background())

	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestStore_Upsert(t *testing.T) {
	store, mock := newMockStore(t)
	facilities := sample()[:2]

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO facilities")
	for _, f := range facilities {
		prep.ExpectExec().
			WithArgs(f.ID, f.Name, f.Capacity, f.Lon, f.Lat, f.Contact, f.Hours, f.Verified, f.Address).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	n, err := store.Upsert(context.Background(), facilities)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertRollsBackOnMissingID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO facilities")
	mock.ExpectRollback()

	n, err := store.Upsert(context.Background(), []Facility{{Name: "nameless"}})
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS facilities").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSeed(t *testing.T) {
	facilities, err := LoadSeed(filepath.Join("..", "..", "configs", "facilities.json"))
	require.NoError(t, err)
	assert.Len(t, facilities, 44)

	seen := map[string]bool{}
	for _, f := range facilities {
		assert.NotEmpty(t, f.ID)
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadSeed(bad)
	assert.Error(t, err)
}
