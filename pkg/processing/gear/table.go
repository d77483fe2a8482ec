package gear

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpeedRange is the speed band (km/h) in which a gear is considered optimal
type SpeedRange struct {
	Gear int     `yaml:"gear" json:"gear"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

// Table holds the gear configuration of a vehicle. Speed ranges may overlap,
// later entries win.
type Table struct {
	SpeedRanges       []SpeedRange       `yaml:"speedRanges" json:"speedRanges"`
	ShiftRPM          map[string]float64 `yaml:"shiftRpm" json:"shiftRpm"`
	Tolerance         float64            `yaml:"tolerance" json:"tolerance"`
	DownshiftEarlyMax float64            `yaml:"downshiftEarlyMax" json:"downshiftEarlyMax"`
	DownshiftLateMin  float64            `yaml:"downshiftLateMin" json:"downshiftLateMin"`
}

const (
	minGear = 1
	maxGear = 4
)

func DefaultTable() *Table {
	return &Table{
		SpeedRanges: []SpeedRange{
			{Gear: 1, Min: 69, Max: 103.1},
			{Gear: 2, Min: 87.3, Max: 123.8},
			{Gear: 3, Min: 108.5, Max: 146.2},
			{Gear: 4, Min: 128.9, Max: 175.0},
		},
		ShiftRPM: map[string]float64{
			"1->2": 7050,
			"2->3": 7147,
			"3->4": 7200,
		},
		Tolerance:         500,
		DownshiftEarlyMax: 4500,
		DownshiftLateMin:  6500,
	}
}

// LoadTable reads a YAML gear table. Keys missing in the file keep their
// default values.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTable(data)
}

func ParseTable(data []byte) (*Table, error) {
	t := DefaultTable()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("gear table: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) validate() error {
	if len(t.SpeedRanges) == 0 {
		return fmt.Errorf("gear table: no speed ranges")
	}
	for _, r := range t.SpeedRanges {
		if r.Min > r.Max {
			return fmt.Errorf("gear table: gear %d: min %.1f > max %.1f", r.Gear, r.Min, r.Max)
		}
	}
	if t.Tolerance < 0 {
		return fmt.Errorf("gear table: negative tolerance")
	}
	return nil
}

func ShiftKey(from, to int) string {
	return fmt.Sprintf("%d->%d", from, to)
}

// OptimalGear returns the gear for the given speed. Speeds below the first
// range yield gear 1. Otherwise the last range containing the speed wins. If
// no range contains it (gaps, above the last range) the last range starting
// below the speed is used.
func (t *Table) OptimalGear(speed float64) int {
	if len(t.SpeedRanges) == 0 || speed < t.SpeedRanges[0].Min {
		return minGear
	}
	ret, fallback := 0, 0
	for _, r := range t.SpeedRanges {
		if speed >= r.Min && speed <= r.Max {
			ret = r.Gear
		}
		if r.Min <= speed {
			fallback = r.Gear
		}
	}
	if ret == 0 {
		ret = fallback
	}
	return min(max(ret, minGear), maxGear)
}
