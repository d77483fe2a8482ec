package segment

import (
	"github.com/samber/lo"

	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

const (
	BrakeLate        = "Late Braker"
	BrakeAggressive  = "Aggressive"
	BrakeProgressive = "Progressive"

	ThrottleAggressive = "Aggressive"
	ThrottleModulated  = "Modulated"
	ThrottleSmooth     = "Smooth"

	StyleUnknown = "N/A"

	throttleJump = 5.0
)

type Style struct {
	Brake    string `json:"brake"`
	Throttle string `json:"throttle"`
}

// Label renders the style the way the analysis service labels it
func (s Style) Label() string {
	return s.Brake + " / " + s.Throttle
}

// ClassifyStyle derives the driving style from a braking and a throttle
// profile. Braking is judged by where the peak pressure sits in the event,
// throttle by the number of sample to sample jumps above 5 units.
func ClassifyStyle(brake, throttle []float64) Style {
	return Style{Brake: brakeStyle(brake), Throttle: throttleStyle(throttle)}
}

func brakeStyle(profile []float64) string {
	if len(profile) == 0 {
		return StyleUnknown
	}
	peak := 0
	for i, v := range profile {
		if v > profile[peak] {
			peak = i
		}
	}
	pos := 0.0
	if len(profile) > 1 {
		pos = float64(peak) / float64(len(profile)-1)
	}
	switch {
	case pos < 0.2:
		return BrakeLate
	case pos < 0.4:
		return BrakeAggressive
	default:
		return BrakeProgressive
	}
}

func throttleStyle(profile []float64) string {
	if len(profile) == 0 {
		return StyleUnknown
	}
	jumps := 0
	for i := 1; i < len(profile); i++ {
		d := profile[i] - profile[i-1]
		if d > throttleJump || d < -throttleJump {
			jumps++
		}
	}
	switch {
	case jumps > 10:
		return ThrottleAggressive
	case jumps > 5:
		return ThrottleModulated
	default:
		return ThrottleSmooth
	}
}

// LapAnalysis bundles the derived segments of one lap
type LapAnalysis struct {
	Lap             int       `json:"lap"`
	Points          int       `json:"points"`
	BrakeProfile    []float64 `json:"brakeProfile"`
	ThrottleProfile []float64 `json:"throttleProfile"`
	Style           Style     `json:"style"`
	StyleLabel      string    `json:"styleLabel"`
}

// AnalyzeLap computes the derived segments of a lap. Returns false if the lap
// has no telemetry. Points are forward-filled over the whole session before
// the lap is cut so channels sampled at other timestamps keep their value.
func AnalyzeLap(points []model.TelemetryPoint, laps []model.LapRecord, lap int) (*LapAnalysis, bool) {
	window := LapWindow(FillForward(points), laps, lap)
	if len(window) == 0 {
		return nil, false
	}
	brake := BrakingProfile(window)
	throttle := ThrottleProfile(window)
	style := ClassifyStyle(brake, throttle)
	return &LapAnalysis{
		Lap:             lap,
		Points:          len(window),
		BrakeProfile:    brake,
		ThrottleProfile: throttle,
		Style:           style,
		StyleLabel:      style.Label(),
	}, true
}

// FastestLapAnalysis analyzes the fastest valid lap
func FastestLapAnalysis(points []model.TelemetryPoint, laps []model.LapRecord) (*LapAnalysis, bool) {
	lap, ok := FastestLap(laps)
	if !ok {
		return nil, false
	}
	return AnalyzeLap(points, laps, lap)
}

// Mean returns the average of a profile, used for summaries
func Mean(profile []float64) float64 {
	if len(profile) == 0 {
		return 0
	}
	return lo.Sum(profile) / float64(len(profile))
}
