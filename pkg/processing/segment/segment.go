package segment

import (
	"math"

	"github.com/samber/lo"

	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

const (
	ProfileLength = 100

	BrakeThreshold    = 10.0 // percent
	BrakeMinRun       = 6
	ThrottleThreshold = 5.0 // percent
	ThrottleMinRun    = 11

	MinValidLapSeconds = 20.0
)

// LapWindow returns the points whose timestamp falls into the window of the
// given lap: [start, start of the following lap) or, for the last lap,
// [start, start+duration). Returns an empty slice if the lap is unknown.
func LapWindow(points []model.TelemetryPoint, laps []model.LapRecord, lap int) []model.TelemetryPoint {
	rec, ok := lo.Find(laps, func(l model.LapRecord) bool { return l.LapNumber == lap })
	if !ok {
		return []model.TelemetryPoint{}
	}
	start := rec.StartTimestamp
	end := start + int64(math.Round(rec.DurationSeconds*1000))
	later := lo.Filter(laps, func(l model.LapRecord, _ int) bool {
		return l.StartTimestamp > start
	})
	if len(later) > 0 {
		end = lo.MinBy(later, func(a, b model.LapRecord) bool {
			return a.StartTimestamp < b.StartTimestamp
		}).StartTimestamp
	}
	return lo.Filter(points, func(p model.TelemetryPoint, _ int) bool {
		return p.Timestamp >= start && p.Timestamp < end
	})
}

// FastestLap returns the lap number with the shortest duration among laps
// longer than 20 seconds. Shorter laps are pit or timing artifacts.
func FastestLap(laps []model.LapRecord) (int, bool) {
	valid := lo.Filter(laps, func(l model.LapRecord, _ int) bool {
		return l.DurationSeconds > MinValidLapSeconds
	})
	if len(valid) == 0 {
		return 0, false
	}
	best := lo.MinBy(valid, func(a, b model.LapRecord) bool {
		return a.DurationSeconds < b.DurationSeconds
	})
	return best.LapNumber, true
}

// BrakingProfile extracts the braking event with the highest peak pressure
// (first one wins on equal peaks) among runs of at least 6 samples above 10%
// and resamples it to 100 points. Values are percent.
func BrakingProfile(points []model.TelemetryPoint) []float64 {
	values := lo.Map(points, func(p model.TelemetryPoint, _ int) float64 {
		return p.Brake * 100
	})
	candidates := lo.Filter(runs(values, BrakeThreshold), func(r []float64, _ int) bool {
		return len(r) >= BrakeMinRun
	})
	if len(candidates) == 0 {
		return []float64{}
	}
	best := lo.MaxBy(candidates, func(a, b []float64) bool {
		return lo.Max(a) > lo.Max(b)
	})
	return Interpolate(best, ProfileLength)
}

// ThrottleProfile extracts the longest throttle application (first one wins
// on equal length) among runs of at least 11 samples above 5% and resamples it
// to 100 points. Values are percent.
func ThrottleProfile(points []model.TelemetryPoint) []float64 {
	values := lo.Map(points, func(p model.TelemetryPoint, _ int) float64 {
		return p.Throttle * 100
	})
	candidates := lo.Filter(runs(values, ThrottleThreshold), func(r []float64, _ int) bool {
		return len(r) >= ThrottleMinRun
	})
	if len(candidates) == 0 {
		return []float64{}
	}
	best := lo.MaxBy(candidates, func(a, b []float64) bool {
		return len(a) > len(b)
	})
	return Interpolate(best, ProfileLength)
}

// runs splits values into maximal contiguous runs of values above threshold
func runs(values []float64, threshold float64) [][]float64 {
	ret := [][]float64{}
	start := -1
	for i, v := range values {
		switch {
		case v > threshold && start < 0:
			start = i
		case v <= threshold && start >= 0:
			ret = append(ret, values[start:i])
			start = -1
		}
	}
	if start >= 0 {
		ret = append(ret, values[start:])
	}
	return ret
}

// Interpolate resamples values to n points by linear interpolation over the
// index range [0, len(values)-1]. Fewer than 2 input values yield n zeros.
func Interpolate(values []float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	ret := make([]float64, n)
	if len(values) < 2 {
		return ret
	}
	if n == 1 {
		ret[0] = values[0]
		return ret
	}
	last := len(values) - 1
	for i := range ret {
		x := float64(i) * float64(last) / float64(n-1)
		base := int(math.Floor(x))
		if base >= last {
			ret[i] = values[last]
			continue
		}
		frac := x - float64(base)
		ret[i] = values[base] + (values[base+1]-values[base])*frac
	}
	return ret
}

// FillForward returns a copy of points where channels not sampled at a
// timestamp carry the last sampled value. Channels never sampled so far stay
// zero. The channel sets are kept as sampled.
func FillForward(points []model.TelemetryPoint) []model.TelemetryPoint {
	ret := make([]model.TelemetryPoint, len(points))
	last := model.TelemetryPoint{}
	for i, p := range points {
		if p.Channels.Has(model.ChannelSpeed) {
			last.Speed = p.Speed
		}
		if p.Channels.Has(model.ChannelRPM) {
			last.RPM = p.RPM
		}
		if p.Channels.Has(model.ChannelGear) {
			last.Gear = p.Gear
		}
		if p.Channels.Has(model.ChannelThrottle) {
			last.Throttle = p.Throttle
		}
		if p.Channels.Has(model.ChannelBrake) {
			last.Brake = p.Brake
		}
		if p.Channels.Has(model.ChannelSteering) {
			last.Steering = p.Steering
		}
		last.Timestamp = p.Timestamp
		last.Channels = p.Channels
		ret[i] = last
	}
	return ret
}
