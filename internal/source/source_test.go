package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/line"
)

const sampleJSON = `{
  "metadata": {"holidays": ["2025-10-03", "2025-10-09"]},
  "usage": {
    "Gochon": {"Mon": {"8": {"boardCount": 1200, "alightCount": 80}}}
  },
  "timetable": {
    "Gochon": {"toAirport": {"weekday": {"8": [3, 10, {"minute": 6}]}}}
  },
  "2025-10-13": {
    "meta": {"dow": 1, "holiday": false, "weekend": false, "weather": "Clear"},
    "hourly": {"8": [{"station": "Gochon", "cong": 185.5}, {"station": "Pungmu", "cong": 120}]},
    "ml_pred": {"8": {"Gochon": 190.25}}
  },
  "2025-10-18": {
    "meta": {"dow": 6, "holiday": false, "weekend": true, "weather": "Rain"},
    "hourly": {"12": [{"station": "Gochon", "cong": 60}]}
  }
}`

func sampleDB(t *testing.T) *history.Database {
	t.Helper()
	db, err := history.Decode([]byte(sampleJSON))
	require.NoError(t, err)
	return db
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	db, err := NewHTTPSource("local", srv.URL, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, db.Days, 2)
	assert.True(t, db.IsHoliday("2025-10-09"))
}

func TestHTTPSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
			check: func(t *testing.T, err error) { assert.Contains(t, err.Error(), "404") },
		},
		{
			name: "malformed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"2025-10-13": [`))
			},
			check: func(t *testing.T, err error) { assert.True(t, errors.Is(err, history.ErrMalformed)) },
		},
		{
			name: "empty document",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
			check: func(t *testing.T, err error) { assert.True(t, errors.Is(err, history.ErrMalformed)) },
		},
		{
			name: "deadline",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			check: func(t *testing.T, err error) { assert.True(t, errors.Is(err, context.DeadlineExceeded)) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := NewHTTPSource("remote", srv.URL, nil).Fetch(ctx)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

const koreanJSON = `{
  "usage": {"고촌": {"월": {"8": {"boardCount": 900, "alightCount": 30}}}},
  "timetable": {"고촌": {"김포공항방면": {"평일": {"08": [{"minute": 10}, 20]}}}},
  "2025-10-13": {
    "meta": {"dow": 1, "holiday": false, "weekend": false, "weather": "Clear"},
    "hourly": {"8": [{"station": "고촌", "cong": 150}, {"station": "서울역", "cong": 99}]},
    "ml_pred": {"8": {"풍무": 120}}
  }
}`

func TestCanonicalSource_RewritesKoreanKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(koreanJSON))
	}))
	defer srv.Close()

	src := Canonical(NewHTTPSource("local", srv.URL, nil), line.Default())
	assert.Equal(t, "local", src.Name())

	db, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 900.0, db.Usage["Gochon"][history.Monday][8].Board)
	assert.Equal(t, history.Minutes{10, 20}, db.Timetable["Gochon"][string(line.ToAirport)][history.Weekday][8])

	rec := db.Days["2025-10-13"]
	v, ok := rec.Congestion(8, "Gochon")
	assert.True(t, ok)
	assert.Equal(t, 150.0, v)
	ml, ok := rec.ML(8, "Pungmu")
	assert.True(t, ok)
	assert.Equal(t, 120.0, ml)

	// unknown names survive untouched
	_, ok = rec.Congestion(8, "서울역")
	assert.True(t, ok)
}

func TestCanonicalSource_PassesErrorsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Canonical(NewHTTPSource("remote", srv.URL, nil), line.Default()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.Save(ctx, sampleDB(t), "run-1", "sample.json"))

	got, err := store.Fetch(ctx)
	require.NoError(t, err)

	require.Len(t, got.Days, 2)
	rec := got.Days["2025-10-13"]
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Meta.DOW)
	assert.Equal(t, "Clear", rec.Meta.Weather)

	v, ok := rec.Congestion(8, "Gochon")
	require.True(t, ok)
	assert.Equal(t, 185.5, v)

	ml, ok := rec.ML(8, "Gochon")
	require.True(t, ok)
	assert.Equal(t, 190.25, ml)

	assert.True(t, got.Days["2025-10-18"].Meta.Weekend)
	assert.Equal(t, []string{"2025-10-03", "2025-10-09"}, got.Metadata.Holidays)
	assert.Equal(t, 1200.0, got.Usage["Gochon"][history.Monday][8].Board)
	assert.Equal(t, history.Minutes{3, 6, 10}, got.Timetable["Gochon"]["toAirport"][history.Weekday][8])

	// a second save replaces rather than appends
	require.NoError(t, store.Save(ctx, sampleDB(t), "run-2", "sample.json"))
	got, err = store.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Days["2025-10-13"].Hourly[8], 2)
}

func TestSQLiteStore_EmptyTablesHaveNoUsage(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	db, err := store.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, db.Days)
	assert.Nil(t, db.Usage)
	assert.Nil(t, db.Timetable)
}

func TestDollarPlaceholders(t *testing.T) {
	assert.Equal(t, "VALUES ($1, $2, $3)", dollarPlaceholders("VALUES (?, ?, ?)"))
	assert.Equal(t, "SELECT 1", dollarPlaceholders("SELECT 1"))
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	ctx := context.Background()
	store, err := OpenPostgres(ctx, databaseURL)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.Save(ctx, sampleDB(t), uuid.NewString(), "sample.json"))

	got, err := store.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Days, 2)
}
