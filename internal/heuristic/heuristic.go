// Package heuristic synthesizes congestion figures from time-of-day bands when
// no historical database is reachable.
package heuristic

import (
	"hash/fnv"
	"math"
	"strconv"

	"github.com/gimpo-goldline/congestion/internal/ensemble"
	"github.com/gimpo-goldline/congestion/internal/line"
)

// Band is an inclusive hour range with an inclusive congestion range
type Band struct {
	FromHour int
	ToHour   int
	Min      float64
	Max      float64
}

// Time-of-day bands. Hours outside the named bands use OffPeak.
var (
	MorningPeak = Band{FromHour: 7, ToHour: 9, Min: 240, Max: 260}
	EveningPeak = Band{FromHour: 17, ToHour: 19, Min: 200, Max: 220}
	Midday      = Band{FromHour: 10, ToHour: 16, Min: 50, Max: 70}
	OffPeak     = Band{Min: 10, Max: 10}
)

// DefaultEndpointMultiplier is the scale applied at the last station of a route
const DefaultEndpointMultiplier = 1.2

// BandFor returns the band covering hour
func BandFor(hour int) Band {
	for _, b := range []Band{MorningPeak, EveningPeak, Midday} {
		if hour >= b.FromHour && hour <= b.ToHour {
			return b
		}
	}
	return OffPeak
}

// Generator produces deterministic estimates for one line
type Generator struct {
	line       *line.Line
	multiplier float64
}

// New creates a Generator. A multiplier below 1 is replaced with the default.
func New(l *line.Line, multiplier float64) *Generator {
	if multiplier < 1 {
		multiplier = DefaultEndpointMultiplier
	}
	return &Generator{line: l, multiplier: multiplier}
}

// Estimate returns the congestion percentage for station and a route breakdown
// shaped like the ensemble predictor's. Unknown stations are scaled as the
// first station on the route.
func (g *Generator) Estimate(hour int, station string, dir line.Direction) (float64, []ensemble.RouteStation) {
	route := g.line.Route(dir)
	breakdown := make([]ensemble.RouteStation, 0, len(route))
	for i, st := range route {
		v := g.value(hour, st, dir, i, len(route))
		breakdown = append(breakdown, ensemble.RouteStation{Station: st, Congestion: v, Color: ensemble.ColorFor(v)})
	}

	idx := g.line.Position(dir, station)
	if idx < 0 {
		idx = 0
	}
	return g.value(hour, station, dir, idx, len(route)), breakdown
}

// Scale returns the position multiplier for index idx on a route of n stations
func (g *Generator) Scale(idx, n int) float64 {
	if n <= 1 {
		return 1
	}
	return 1 + (g.multiplier-1)*float64(idx)/float64(n-1)
}

func (g *Generator) value(hour int, station string, dir line.Direction, idx, n int) float64 {
	b := BandFor(hour)
	base := b.Min + (b.Max-b.Min)*unit(hour, station, dir)
	return math.Round(base * g.Scale(idx, n))
}

// unit maps the inputs to [0, 1] with an FNV-1a hash
func unit(hour int, station string, dir line.Direction) float64 {
	h := fnv.New32a()
	h.Write([]byte(strconv.Itoa(hour)))
	h.Write([]byte{'|'})
	h.Write([]byte(station))
	h.Write([]byte{'|'})
	h.Write([]byte(dir))
	return float64(h.Sum32()%1001) / 1000
}
