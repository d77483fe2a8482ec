package telemetrydata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

// WriteFile writes content to dir/name and returns the path
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Session holds the paths of a synthetic session written by WriteSession
type Session struct {
	Telemetry string
	Laps      string
	Weather   string
	Sections  string
}

// DefaultLaps are three laps of 95, 92 and 18 seconds starting at 0
var DefaultLaps = []model.LapRecord{
	{LapNumber: 1, StartTimestamp: 0, DurationSeconds: 95},
	{LapNumber: 2, StartTimestamp: 95000, DurationSeconds: 92},
	{LapNumber: 3, StartTimestamp: 187000, DurationSeconds: 18},
}

// WriteSession writes a session with vehicles 3, 14 and 22 into a temp
// directory. Vehicle 14 runs through the gears once per lap.
func WriteSession(t testing.TB) Session {
	t.Helper()
	dir := t.TempDir()
	var samples []Sample
	for _, lap := range DefaultLaps {
		for i := int64(0); i < 40; i++ {
			ms := lap.StartTimestamp + i*250
			gear := 1 + int(i/10)
			samples = append(samples, Samples("14", Point{
				Ms: ms, Speed: 70 + float64(i)*2.5, RPM: 5000 + float64(i%10)*230,
				Gear: gear, Throttle: 100, Brake: 0,
			})...)
			samples = append(samples,
				Sample{Vehicle: "3", Channel: "speed", Value: 80, Timestamp: Timestamp(ms + 10)},
				Sample{Vehicle: "22", Channel: "speed", Value: 90, Timestamp: Timestamp(ms + 20)},
			)
		}
	}
	return Session{
		Telemetry: WriteFile(t, dir, "telemetry.csv", TelemetryCSV(samples...)),
		Laps:      WriteFile(t, dir, "laps.csv", LapsCSV(DefaultLaps...)),
		Weather: WriteFile(t, dir, "weather.csv", WeatherCSV(
			model.WeatherSample{Timestamp: "9/7/2025 1:00:00 PM", AirTemp: 28.5, TrackTemp: 41, Humidity: 55},
		)),
		Sections: WriteFile(t, dir, "sections.csv", SectionsCSV(
			model.SectionRecord{CarNumber: "14", LapNumber: 1, Flag: "GF", Sector1Seconds: 30.1, Sector2Seconds: 31.2, Sector3Seconds: 33.7},
		)),
	}
}
