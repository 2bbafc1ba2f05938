// Package line describes the single rail line the estimator serves: its
// stations and the ordered route in each travel direction.
package line

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed goldline.yaml
var defaultLineYAML []byte

// Direction is a logical travel direction
type Direction string

const (
	ToAirport  Direction = "toAirport"
	ToTerminus Direction = "toTerminus"
)

// Station is a stop on the line
type Station struct {
	ID      string   `yaml:"id"`
	Aliases []string `yaml:"aliases"`
}

// DirectionInfo carries the display label and accepted aliases for a direction
type DirectionInfo struct {
	Label   string   `yaml:"label"`
	Aliases []string `yaml:"aliases"`
}

// Line is an ordered set of stations. Stations are listed in ToAirport order.
type Line struct {
	Name       string                      `yaml:"name"`
	Timezone   string                      `yaml:"timezone"`
	Stations   []Station                   `yaml:"stations"`
	Directions map[Direction]DirectionInfo `yaml:"directions"`

	stationIndex map[string]int
	aliasIndex   map[string]string
}

// Default returns the embedded Gimpo Goldline definition
func Default() *Line {
	l, err := Parse(defaultLineYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded line definition is invalid: %v", err))
	}
	return l
}

// Load reads a line definition from a YAML file. An empty path returns Default().
func Load(path string) (*Line, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read line file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML line definition
func Parse(data []byte) (*Line, error) {
	var l Line
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse line definition: %w", err)
	}
	if len(l.Stations) < 2 {
		return nil, errors.New("line must have at least two stations")
	}

	l.stationIndex = make(map[string]int, len(l.Stations))
	l.aliasIndex = make(map[string]string)
	for i, s := range l.Stations {
		if s.ID == "" {
			return nil, fmt.Errorf("station %d has no id", i)
		}
		if _, dup := l.stationIndex[s.ID]; dup {
			return nil, fmt.Errorf("duplicate station id: %s", s.ID)
		}
		l.stationIndex[s.ID] = i
		l.aliasIndex[normalize(s.ID)] = s.ID
		for _, a := range s.Aliases {
			l.aliasIndex[normalize(a)] = s.ID
		}
	}
	return &l, nil
}

// Route returns station IDs in travel order for the given direction
func (l *Line) Route(dir Direction) []string {
	route := make([]string, len(l.Stations))
	for i, s := range l.Stations {
		if dir == ToTerminus {
			route[len(l.Stations)-1-i] = s.ID
		} else {
			route[i] = s.ID
		}
	}
	return route
}

// StationIDs returns all station IDs in ToAirport order
func (l *Line) StationIDs() []string {
	return l.Route(ToAirport)
}

// ResolveStation maps an ID or alias to the canonical station ID
func (l *Line) ResolveStation(name string) (string, bool) {
	id, ok := l.aliasIndex[normalize(name)]
	return id, ok
}

// HasStation reports whether id is a canonical station ID
func (l *Line) HasStation(id string) bool {
	_, ok := l.stationIndex[id]
	return ok
}

// ResolveDirection maps a direction ID or alias to a Direction.
// An empty value resolves to ToAirport.
func (l *Line) ResolveDirection(value string) (Direction, bool) {
	v := normalize(value)
	if v == "" {
		return ToAirport, true
	}
	for _, d := range []Direction{ToAirport, ToTerminus} {
		if v == normalize(string(d)) {
			return d, true
		}
		info := l.Directions[d]
		if v == normalize(info.Label) {
			return d, true
		}
		for _, a := range info.Aliases {
			if v == normalize(a) {
				return d, true
			}
		}
	}
	return "", false
}

// Position returns the station's index along the route for dir, or -1
func (l *Line) Position(dir Direction, station string) int {
	i, ok := l.stationIndex[station]
	if !ok {
		return -1
	}
	if dir == ToTerminus {
		return len(l.Stations) - 1 - i
	}
	return i
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
