package model

// Channel identifies one physical signal carried by the telemetry export.
type Channel uint8

const (
	ChannelSpeed Channel = 1 << iota
	ChannelRPM
	ChannelGear
	ChannelThrottle
	ChannelBrake
	ChannelSteering
)

// ChannelSet is a bitmask of channels sampled at one timestamp.
type ChannelSet uint8

func (s ChannelSet) Has(c Channel) bool { return s&ChannelSet(c) != 0 }

func (s ChannelSet) With(c Channel) ChannelSet { return s | ChannelSet(c) }

func (c Channel) String() string {
	switch c {
	case ChannelSpeed:
		return "speed"
	case ChannelRPM:
		return "rpm"
	case ChannelGear:
		return "gear"
	case ChannelThrottle:
		return "throttle"
	case ChannelBrake:
		return "brake"
	case ChannelSteering:
		return "steering"
	}
	return "unknown"
}

// TelemetryPoint holds all channels sampled for one vehicle at one timestamp.
// Throttle and Brake are fractions in [0,1].
type TelemetryPoint struct {
	Timestamp int64      `json:"timestamp"` // epoch ms
	Speed     float64    `json:"speed"`
	RPM       float64    `json:"rpm"`
	Gear      int        `json:"gear"`
	Throttle  float64    `json:"throttle"`
	Brake     float64    `json:"brake"`
	Steering  float64    `json:"steering"`
	Channels  ChannelSet `json:"channels"`
}

// LapRecord describes one lap. The lap window is
// [StartTimestamp, next.StartTimestamp) or, for the last lap,
// [StartTimestamp, StartTimestamp+DurationSeconds*1000).
type LapRecord struct {
	LapNumber       int     `json:"lapNumber"`
	DurationSeconds float64 `json:"durationSeconds"`
	StartTimestamp  int64   `json:"startTimestamp"`
}

type WeatherSample struct {
	Timestamp string  `json:"timestamp"`
	AirTemp   float64 `json:"airTemp"`
	TrackTemp float64 `json:"trackTemp"`
	Humidity  float64 `json:"humidity"`
	Rain      float64 `json:"rain"`
}

type SectionRecord struct {
	CarNumber      string  `json:"carNumber"`
	LapNumber      int     `json:"lapNumber"`
	Flag           string  `json:"flag"`
	Sector1Seconds float64 `json:"sector1Seconds"`
	Sector2Seconds float64 `json:"sector2Seconds"`
	Sector3Seconds float64 `json:"sector3Seconds"`
}
