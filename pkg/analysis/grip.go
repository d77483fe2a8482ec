package analysis

import (
	"context"

	"github.com/ohler55/ojg/jp"

	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

var (
	pathGripPercent = jp.MustParseString("$.data.grip_percent")
	pathConfidence  = jp.MustParseString("$.data.confidence")
	pathSectorDelta = jp.MustParseString("$.data.expected_sector_time_change")
)

// GripTelemetry carries the sector metrics the grip model is fed with
type GripTelemetry struct {
	ExitSpeed              float64 `json:"exit_speed"`
	MeanBrakePressure      float64 `json:"mean_pbrake_f"`
	ThrottleStdDev         float64 `json:"aps_std"`
	BrakePointShiftSeconds float64 `json:"brake_point_shift_seconds"`
	SectorID               int     `json:"sector_id"`
}

type GripRequest struct {
	Weather   map[string]any
	Telemetry GripTelemetry
}

type GripResult struct {
	GripPercent              float64 `json:"gripPercent"`
	Confidence               float64 `json:"confidence"`
	ExpectedSectorTimeChange float64 `json:"expectedSectorTimeChange"`
}

func (c *Client) AnalyzeGrip(ctx context.Context, req GripRequest) (*GripResult, error) {
	weather := req.Weather
	if weather == nil {
		weather = map[string]any{}
	}
	obj, err := c.post(ctx, EndpointGrip, map[string]any{
		"weather": weather,
		"telemetry": map[string]any{
			"exit_speed":                req.Telemetry.ExitSpeed,
			"mean_pbrake_f":             req.Telemetry.MeanBrakePressure,
			"aps_std":                   req.Telemetry.ThrottleStdDev,
			"brake_point_shift_seconds": req.Telemetry.BrakePointShiftSeconds,
			"sector_id":                 req.Telemetry.SectorID,
		},
	})
	if err != nil {
		return nil, err
	}
	grip, ok := floatAt(pathGripPercent, obj)
	if !ok {
		return nil, &NetworkError{Endpoint: EndpointGrip, Message: "response misses grip_percent"}
	}
	ret := &GripResult{GripPercent: grip}
	ret.Confidence, _ = floatAt(pathConfidence, obj)
	ret.ExpectedSectorTimeChange, _ = floatAt(pathSectorDelta, obj)
	return ret, nil
}

// WeatherPayload converts a weather sample (Celsius) into the keys the grip
// model reads
func WeatherPayload(w model.WeatherSample) map[string]any {
	return map[string]any{
		"AirTemp_F":    celsiusToFahrenheit(w.AirTemp),
		"TrackTemp_F":  celsiusToFahrenheit(w.TrackTemp),
		"Humidity_pct": w.Humidity,
		"Rain":         w.Rain,
	}
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
