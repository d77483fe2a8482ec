// Package auxcsv decodes the small fixed-layout session files: weather, lap
// times and sections. Each file is decoded from one blob, short or malformed
// rows are skipped and counted.
package auxcsv

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/chunk"
	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

// lap times, comma separated
const (
	lapColNumber    = 1
	lapColTimestamp = 7
	lapColTime      = 8
)

// weather, semicolon separated
const (
	weatherColTimestamp = 1
	weatherColAir       = 2
	weatherColTrack     = 3
	weatherColHumidity  = 4
	weatherColRain      = 8
)

// sections, semicolon separated
const (
	sectionColCar     = 0
	sectionColLap     = 2
	sectionColFlag    = 23
	sectionColSector1 = 24
	sectionMinColumns = 24
)

// rows calls fn with the split fields of every data row
func rows(data []byte, sep string, want int, fn func(f []string) bool) ingest.Stats {
	stats := ingest.Stats{}
	header := true
	//nolint:errcheck // callback never fails, reading from memory
	chunk.FromBytes(data, chunk.WithChunkSize(len(data))).Lines(context.Background(),
		func(line string) error {
			if header {
				header = false
				return nil
			}
			if strings.TrimSpace(line) == "" {
				return nil
			}
			stats.Lines++
			f := strings.Split(line, sep)
			if len(f) < want {
				stats.Format++
				return nil
			}
			if fn(f) {
				stats.Matched++
			} else {
				stats.Skipped++
			}
			return nil
		})
	return stats
}

// ParseLaps decodes a lap time export. The result is sorted by start time.
func ParseLaps(data []byte) ([]model.LapRecord, ingest.Stats) {
	ret := []model.LapRecord{}
	stats := rows(data, ",", lapColTime+1, func(f []string) bool {
		num, err := ingest.ParseFloat(f[lapColNumber])
		if err != nil || num < 1 {
			return false
		}
		start, err := ingest.ParseTimestamp(f[lapColTimestamp])
		if err != nil {
			return false
		}
		dur, err := ingest.ParseSeconds(f[lapColTime])
		if err != nil {
			return false
		}
		ret = append(ret, model.LapRecord{
			LapNumber:       int(math.Round(num)),
			DurationSeconds: dur,
			StartTimestamp:  start,
		})
		return true
	})
	slices.SortStableFunc(ret, func(a, b model.LapRecord) int {
		switch {
		case a.StartTimestamp < b.StartTimestamp:
			return -1
		case a.StartTimestamp > b.StartTimestamp:
			return 1
		}
		return 0
	})
	return ret, stats
}

func ParseWeather(data []byte) ([]model.WeatherSample, ingest.Stats) {
	ret := []model.WeatherSample{}
	stats := rows(data, ";", weatherColRain+1, func(f []string) bool {
		vals := make([]float64, 0, 4)
		for _, col := range []int{
			weatherColAir, weatherColTrack, weatherColHumidity, weatherColRain,
		} {
			v, err := ingest.ParseFloat(f[col])
			if err != nil {
				return false
			}
			vals = append(vals, v)
		}
		ret = append(ret, model.WeatherSample{
			Timestamp: ingest.Clean(f[weatherColTimestamp]),
			AirTemp:   vals[0],
			TrackTemp: vals[1],
			Humidity:  vals[2],
			Rain:      vals[3],
		})
		return true
	})
	return ret, stats
}

// ParseSections decodes a sections export. Rows need at least 24 columns,
// sector times missing from shorter rows are zero.
func ParseSections(data []byte) ([]model.SectionRecord, ingest.Stats) {
	ret := []model.SectionRecord{}
	stats := rows(data, ";", sectionMinColumns, func(f []string) bool {
		lap, err := ingest.ParseFloat(f[sectionColLap])
		if err != nil {
			return false
		}
		car := ingest.Clean(f[sectionColCar])
		if car == "" {
			return false
		}
		sectors := [3]float64{}
		for i := range sectors {
			col := sectionColSector1 + i
			if col >= len(f) {
				break
			}
			if v, err := ingest.ParseSeconds(f[col]); err == nil {
				sectors[i] = v
			}
		}
		ret = append(ret, model.SectionRecord{
			CarNumber:      car,
			LapNumber:      int(math.Round(lap)),
			Flag:           ingest.Clean(f[sectionColFlag]),
			Sector1Seconds: sectors[0],
			Sector2Seconds: sectors[1],
			Sector3Seconds: sectors[2],
		})
		return true
	})
	return ret, stats
}
