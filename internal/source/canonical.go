package source

import (
	"context"
	"log"

	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/line"
)

// Fetcher is the source shape the resolver consumes
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (*history.Database, error)
}

// CanonicalSource rewrites every fetched database to the line's canonical keys
type CanonicalSource struct {
	src  Fetcher
	line *line.Line
}

// Canonical wraps src so its databases are keyed by l's station, direction
// and day IDs
func Canonical(src Fetcher, l *line.Line) *CanonicalSource {
	return &CanonicalSource{src: src, line: l}
}

// Name implements resolver.Source
func (c *CanonicalSource) Name() string {
	return c.src.Name()
}

// Fetch implements resolver.Source
func (c *CanonicalSource) Fetch(ctx context.Context) (*history.Database, error) {
	db, err := c.src.Fetch(ctx)
	if err != nil || db == nil {
		return db, err
	}
	if unknown := c.line.Canonicalize(db); len(unknown) > 0 {
		log.Printf("Source %s: %d unknown station names kept as-is: %v", c.src.Name(), len(unknown), unknown)
	}
	return db, nil
}
