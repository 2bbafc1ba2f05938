// Package resolver supplies the historical database through a chain of
// cache, local source and remote source, each bounded by its own timeout.
// When every tier fails the resolution is marked degraded and callers fall
// back to heuristic estimates.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// ModeEmergency marks a resolution where no real database was reachable
const ModeEmergency = "EMERGENCY_MODE"

// ErrSourceUnavailable wraps every tier failure
var ErrSourceUnavailable = errors.New("source unavailable")

// Source fetches and decodes a historical database
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*history.Database, error)
}

// Tier is a Source with its deadline
type Tier struct {
	Source  Source
	Timeout time.Duration
}

// Resolution is the outcome of Resolve. DB is nil when Degraded is true.
type Resolution struct {
	DB       *history.Database
	Source   string
	Cached   bool
	Degraded bool
	Mode     string
	Failures []string
}

// Resolver walks its tiers in order until one succeeds
type Resolver struct {
	cache Cache
	tiers []Tier
	group singleflight.Group
}

// New creates a Resolver. A nil cache gets a never-expiring GCache.
func New(cache Cache, tiers ...Tier) *Resolver {
	if cache == nil {
		cache = NewCache(0)
	}
	return &Resolver{cache: cache, tiers: tiers}
}

// Resolve returns the cached database or fetches one. Concurrent cold calls
// share a single in-flight resolution. Failures are never cached.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	if e, ok := r.cache.Get(); ok {
		return Resolution{DB: e.DB, Source: e.Source, Cached: true}
	}

	// the shared fetch must not die with whichever caller started it
	shared := context.WithoutCancel(ctx)
	v, _, _ := r.group.Do(entryKey, func() (interface{}, error) {
		if e, ok := r.cache.Get(); ok {
			return Resolution{DB: e.DB, Source: e.Source, Cached: true}, nil
		}
		return r.fetch(shared), nil
	})
	return v.(Resolution)
}

// Peek reports the cached entry without fetching
func (r *Resolver) Peek() (Entry, bool) {
	return r.cache.Get()
}

// Invalidate drops the cached database so the next Resolve fetches again
func (r *Resolver) Invalidate() {
	r.cache.Purge()
}

func (r *Resolver) fetch(ctx context.Context) Resolution {
	var failures []string
	for _, tier := range r.tiers {
		db, err := fetchTier(ctx, tier)
		if err != nil {
			log.Printf("Resolver: %v", err)
			failures = append(failures, err.Error())
			continue
		}
		r.cache.Set(Entry{DB: db, Source: tier.Source.Name(), LoadedAt: time.Now()})
		log.Printf("Resolver: loaded %d days from %s", len(db.Days), tier.Source.Name())
		return Resolution{DB: db, Source: tier.Source.Name()}
	}

	log.Printf("Resolver: all %d sources failed, entering %s", len(r.tiers), ModeEmergency)
	return Resolution{Degraded: true, Mode: ModeEmergency, Failures: failures}
}

func fetchTier(ctx context.Context, tier Tier) (*history.Database, error) {
	if tier.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tier.Timeout)
		defer cancel()
	}

	db, err := tier.Source.Fetch(ctx)
	if err == nil && (db == nil || db.Empty()) {
		err = errors.New("empty database")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, tier.Source.Name(), err)
	}
	return db, nil
}
