package analysis

import (
	"context"

	"github.com/ohler55/ojg/jp"
	"github.com/shopspring/decimal"
)

// DRSGap is the largest gap in seconds for which DRS is available
const DRSGap = 1.0

var (
	pathProbability = jp.MustParseString("$.probability")
	pathDRS         = jp.MustParseString("$.drs")
)

type OvertakeRequest struct {
	Gap       float64 `json:"gap"`
	TimeDiff  float64 `json:"time_diff"`
	SpeedDiff float64 `json:"speed_diff"`
}

type OvertakePrediction struct {
	Probability float64 `json:"probability"` // percent, one decimal
	DRS         bool    `json:"drs"`
}

// DRSAvailable reports whether the attacking car may use DRS at gap seconds
func DRSAvailable(gap float64) bool {
	return gap <= DRSGap
}

func (c *Client) PredictOvertake(
	ctx context.Context, req OvertakeRequest,
) (*OvertakePrediction, error) {
	obj, err := c.post(ctx, EndpointOvertake, map[string]any{
		"gap":        req.Gap,
		"time_diff":  req.TimeDiff,
		"speed_diff": req.SpeedDiff,
	})
	if err != nil {
		return nil, err
	}
	prob, ok := floatAt(pathProbability, obj)
	if !ok {
		return nil, &NetworkError{Endpoint: EndpointOvertake, Message: "response misses probability"}
	}
	prob = min(max(prob, 0), 100)
	ret := &OvertakePrediction{
		Probability: decimal.NewFromFloat(prob).Round(1).InexactFloat64(),
		DRS:         DRSAvailable(req.Gap),
	}
	if drs, ok := pathDRS.First(obj).(bool); ok {
		ret.DRS = drs
	}
	return ret, nil
}
