package ridership

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// Model day-type keys used in BASE_LOAD
const (
	ModelWorkday = "Workday"
	ModelHoliday = "Holiday"
)

// DefaultWeather is assumed when no forecast is available
const DefaultWeather = "Clear"

// BaseCounts is the averaged board/alight pair for one station-hour
type BaseCounts struct {
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// WeatherFactor scales demand separately for peak and off-peak hours
type WeatherFactor struct {
	Peak float64 `json:"Peak"`
	Off  float64 `json:"Off"`
}

// UnmarshalJSON accepts either {"Peak": x, "Off": y} or a single number
func (w *WeatherFactor) UnmarshalJSON(data []byte) error {
	var single float64
	if err := json.Unmarshal(data, &single); err == nil {
		w.Peak, w.Off = single, single
		return nil
	}
	type plain WeatherFactor
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*w = WeatherFactor(p)
	return nil
}

// Model holds precomputed demand constants: base load per station, day type
// and hour, plus multiplicative season and weather factors.
type Model struct {
	BaseLoad       map[string]map[string]map[int]BaseCounts `json:"BASE_LOAD"`
	SeasonFactors  map[int]float64                          `json:"SEASON_FACTORS"`
	WeatherFactors map[string]WeatherFactor                 `json:"WEATHER_FACTORS"`
	Forecast       map[string]string                        `json:"FORECAST"`
}

// LoadModel reads model constants from a JSON file. A leading
// "const MODEL_CONSTANTS = " assignment and trailing ";" are tolerated.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes model constants
func ParseModel(data []byte) (*Model, error) {
	data = bytes.TrimSpace(data)
	if i := bytes.IndexByte(data, '{'); i > 0 {
		data = data[i:]
	}
	data = bytes.TrimSuffix(data, []byte(";"))

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model constants: %w", err)
	}
	return &m, nil
}

// Canonicalize rewrites BASE_LOAD station keys through resolve. Unresolved
// keys are kept and returned.
func (m *Model) Canonicalize(resolve func(name string) (string, bool)) []string {
	var unknown []string
	base := make(map[string]map[string]map[int]BaseCounts, len(m.BaseLoad))
	for name, byDay := range m.BaseLoad {
		id, ok := resolve(name)
		if !ok {
			id = name
			unknown = append(unknown, name)
		}
		base[id] = byDay
	}
	m.BaseLoad = base
	sort.Strings(unknown)
	return unknown
}

// IsPeak reports whether hour falls in the commute windows used by weather factors
func IsPeak(hour int) bool {
	return (hour >= 6 && hour <= 8) || (hour >= 17 && hour <= 19)
}

// ForecastWeather returns the forecast condition for date, or DefaultWeather
func (m *Model) ForecastWeather(date string) string {
	if w, ok := m.Forecast[date]; ok && w != "" {
		return w
	}
	return DefaultWeather
}

// Provider returns a ridership provider for a day type, month and weather
func (m *Model) Provider(dayType history.DayType, month int, weather string) Provider {
	key := ModelWorkday
	if dayType == history.Weekend {
		key = ModelHoliday
	}
	season, ok := m.SeasonFactors[month]
	if !ok || season <= 0 {
		season = 1.0
	}
	return &modelProvider{model: m, dayKey: key, season: season, weather: weather}
}

type modelProvider struct {
	model   *Model
	dayKey  string
	season  float64
	weather string
}

// Lookup implements Provider
func (p *modelProvider) Lookup(station string, hour int) (history.Counts, bool) {
	base, ok := p.model.BaseLoad[station][p.dayKey][hour]
	if !ok {
		return history.Counts{}, false
	}
	factor := p.season * p.weatherFactor(hour)
	return history.Counts{
		Board:  math.Round(base.B * factor),
		Alight: math.Round(base.A * factor),
	}, true
}

func (p *modelProvider) weatherFactor(hour int) float64 {
	wf, ok := p.model.WeatherFactors[p.weather]
	if !ok {
		return 1.0
	}
	f := wf.Off
	if IsPeak(hour) {
		f = wf.Peak
	}
	if f <= 0 {
		return 1.0
	}
	return f
}
