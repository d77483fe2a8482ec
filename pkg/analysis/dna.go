package analysis

import (
	"context"

	"github.com/ohler55/ojg/jp"
)

var (
	pathDriverID   = jp.MustParseString("$.driverId")
	pathBrakeSig   = jp.MustParseString("$.dna.brake_signature")
	pathThrottle   = jp.MustParseString("$.dna.throttle_signature")
	pathStyleLabel = jp.MustParseString("$.style.style_label")
	pathOptimal    = jp.MustParseString("$.optimalLaps[*]")
)

// DNARequest identifies the files and the driver the baseline is computed for
type DNARequest struct {
	TelemetryPath string `json:"telemetryPath"`
	LapsPath      string `json:"lapsPath"`
	DriverID      string `json:"driverId"`
	DriverNumber  int    `json:"driverNumber"`
}

// DNA is the optimal-lap baseline of a driver
type DNA struct {
	DriverID          string    `json:"driverId"`
	BrakeSignature    []float64 `json:"brakeSignature"`
	ThrottleSignature []float64 `json:"throttleSignature"`
	StyleLabel        string    `json:"styleLabel"`
	OptimalLaps       []int     `json:"optimalLaps"`
}

func (c *Client) AnalyzeDNA(ctx context.Context, req DNARequest) (*DNA, error) {
	obj, err := c.post(ctx, EndpointDNA, map[string]any{
		"telemetryPath": req.TelemetryPath,
		"lapsPath":      req.LapsPath,
		"driverId":      req.DriverID,
		"driverNumber":  req.DriverNumber,
	})
	if err != nil {
		return nil, err
	}
	brake, okBrake := floatsAt(pathBrakeSig, obj)
	throttle, okThrottle := floatsAt(pathThrottle, obj)
	if !okBrake || !okThrottle {
		return nil, &NetworkError{Endpoint: EndpointDNA, Message: "response misses dna signatures"}
	}
	ret := &DNA{
		DriverID:          req.DriverID,
		BrakeSignature:    brake,
		ThrottleSignature: throttle,
		OptimalLaps:       []int{},
	}
	if id, ok := pathDriverID.First(obj).(string); ok && id != "" {
		ret.DriverID = id
	}
	if label, ok := pathStyleLabel.First(obj).(string); ok {
		ret.StyleLabel = label
	}
	for _, v := range pathOptimal.Get(obj) {
		if f, ok := toFloat(v); ok {
			ret.OptimalLaps = append(ret.OptimalLaps, int(f))
		}
	}
	return ret, nil
}
