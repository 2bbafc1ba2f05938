// Package ridership supplies hourly board/alight counts per station to the
// capacity simulation.
package ridership

import (
	"github.com/gimpo-goldline/congestion/internal/history"
)

// DefaultCounts is the normal-traffic pair used when a provider has no entry
var DefaultCounts = history.Counts{Board: 200, Alight: 200}

// Provider looks up hourly counts. ok is false when there is no entry.
type Provider interface {
	Lookup(station string, hour int) (history.Counts, bool)
}

// Get returns counts from p, or DefaultCounts when p is nil or has no entry
func Get(p Provider, station string, hour int) history.Counts {
	if p == nil {
		return DefaultCounts
	}
	if c, ok := p.Lookup(station, hour); ok {
		return c
	}
	return DefaultCounts
}

// Chain tries providers in order and returns the first entry found
type Chain []Provider

// Lookup implements Provider
func (c Chain) Lookup(station string, hour int) (history.Counts, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if counts, ok := p.Lookup(station, hour); ok {
			return counts, true
		}
	}
	return history.Counts{}, false
}

// UsageTable serves counts from the historical usage table for one day label
type UsageTable struct {
	usage history.Usage
	label history.DayLabel
}

// FromUsage creates a provider over usage for label
func FromUsage(usage history.Usage, label history.DayLabel) *UsageTable {
	return &UsageTable{usage: usage, label: label}
}

// Lookup implements Provider
func (u *UsageTable) Lookup(station string, hour int) (history.Counts, bool) {
	byDay, ok := u.usage[station]
	if !ok {
		return history.Counts{}, false
	}
	byHour, ok := byDay[u.label]
	if !ok {
		return history.Counts{}, false
	}
	c, ok := byHour[hour]
	return c, ok
}

// Static is a fixed station -> hour -> counts table
type Static map[string]map[int]history.Counts

// Lookup implements Provider
func (s Static) Lookup(station string, hour int) (history.Counts, bool) {
	c, ok := s[station][hour]
	return c, ok
}
