package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimpo-goldline/congestion/internal/history"
)

type fakeSource struct {
	name  string
	delay time.Duration
	err   error
	calls atomic.Int32
	db    *history.Database
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) (*history.Database, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.db != nil {
		return f.db, nil
	}
	return &history.Database{Days: map[string]*history.DayRecord{"2025-10-13": {Date: "2025-10-13"}}}, nil
}

func TestResolve_LocalFirstThenCached(t *testing.T) {
	local := &fakeSource{name: "local"}
	remote := &fakeSource{name: "remote"}
	r := New(nil, Tier{Source: local, Timeout: time.Second}, Tier{Source: remote, Timeout: time.Second})

	res := r.Resolve(context.Background())
	require.NotNil(t, res.DB)
	assert.Equal(t, "local", res.Source)
	assert.False(t, res.Cached)
	assert.False(t, res.Degraded)

	res = r.Resolve(context.Background())
	assert.True(t, res.Cached)
	assert.Equal(t, "local", res.Source)

	assert.Equal(t, int32(1), local.calls.Load())
	assert.Equal(t, int32(0), remote.calls.Load())
}

func TestResolve_FallsThroughTiers(t *testing.T) {
	tests := []struct {
		name  string
		local Source
	}{
		{"error", &fakeSource{name: "local", err: errors.New("connection refused")}},
		{"timeout", &fakeSource{name: "local", delay: time.Second}},
		{"nil database", nilSource{}},
		{"empty database", &fakeSource{name: "local", db: &history.Database{Days: map[string]*history.DayRecord{}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			remote := &fakeSource{name: "remote"}
			r := New(nil, Tier{Source: tc.local, Timeout: 20 * time.Millisecond}, Tier{Source: remote, Timeout: time.Second})

			start := time.Now()
			res := r.Resolve(context.Background())
			assert.Less(t, time.Since(start), 500*time.Millisecond)

			require.NotNil(t, res.DB)
			assert.Equal(t, "remote", res.Source)
			assert.False(t, res.Degraded)
			assert.Equal(t, int32(1), remote.calls.Load())
		})
	}
}

type nilSource struct{}

func (nilSource) Name() string { return "nil" }

func (nilSource) Fetch(context.Context) (*history.Database, error) { return nil, nil }

func TestResolve_AllFailIsDegradedAndNotCached(t *testing.T) {
	local := &fakeSource{name: "local", err: errors.New("boom")}
	remote := &fakeSource{name: "remote", delay: time.Second}
	r := New(nil, Tier{Source: local, Timeout: 10 * time.Millisecond}, Tier{Source: remote, Timeout: 10 * time.Millisecond})

	res := r.Resolve(context.Background())
	assert.True(t, res.Degraded)
	assert.Equal(t, ModeEmergency, res.Mode)
	assert.Nil(t, res.DB)
	assert.Len(t, res.Failures, 2)

	_, ok := r.Peek()
	assert.False(t, ok)

	// recovery on the next call
	local.err = nil
	res = r.Resolve(context.Background())
	assert.False(t, res.Degraded)
	assert.Equal(t, "local", res.Source)
	assert.Equal(t, int32(2), local.calls.Load())
}

func TestResolve_EmptyDatabaseDegrades(t *testing.T) {
	empty := &fakeSource{name: "empty", db: &history.Database{Days: map[string]*history.DayRecord{}}}
	r := New(nil, Tier{Source: empty, Timeout: time.Second})

	res := r.Resolve(context.Background())
	assert.True(t, res.Degraded)
	assert.Equal(t, ModeEmergency, res.Mode)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "empty database")

	_, ok := r.Peek()
	assert.False(t, ok, "an empty database must not be cached")
}

func TestResolve_SingleInFlight(t *testing.T) {
	local := &fakeSource{name: "local", delay: 50 * time.Millisecond}
	r := New(nil, Tier{Source: local, Timeout: time.Second})

	var wg sync.WaitGroup
	results := make([]Resolution, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), local.calls.Load())
	for _, res := range results {
		require.NotNil(t, res.DB)
		assert.False(t, res.Degraded)
	}
}

func TestResolve_CallerCancelDoesNotAbortFetch(t *testing.T) {
	local := &fakeSource{name: "local", delay: 30 * time.Millisecond}
	r := New(nil, Tier{Source: local, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Resolve(ctx)
	assert.False(t, res.Degraded)
	assert.NotNil(t, res.DB)
}

func TestResolve_TTLExpiry(t *testing.T) {
	local := &fakeSource{name: "local"}
	r := New(NewCache(20*time.Millisecond), Tier{Source: local, Timeout: time.Second})

	r.Resolve(context.Background())
	time.Sleep(50 * time.Millisecond)
	res := r.Resolve(context.Background())

	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), local.calls.Load())
}

func TestResolve_Invalidate(t *testing.T) {
	local := &fakeSource{name: "local"}
	r := New(nil, Tier{Source: local, Timeout: time.Second})

	r.Resolve(context.Background())
	r.Invalidate()
	r.Resolve(context.Background())
	assert.Equal(t, int32(2), local.calls.Load())
}

func TestFetchTier_WrapsSourceUnavailable(t *testing.T) {
	_, err := fetchTier(context.Background(), Tier{Source: &fakeSource{name: "x", err: errors.New("bad")}})
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "x")
}
