package model

type ShiftClass string

const (
	ShiftOptimal ShiftClass = "optimal"
	ShiftEarly   ShiftClass = "early"
	ShiftLate    ShiftClass = "late"
)

type GearShiftEvent struct {
	Timestamp      int64      `json:"timestamp"`
	FromGear       int        `json:"fromGear"`
	ToGear         int        `json:"toGear"`
	RPMAtShift     float64    `json:"rpmAtShift"`
	Classification ShiftClass `json:"classification"`
}

func (e GearShiftEvent) Upshift() bool { return e.ToGear > e.FromGear }

const (
	AlertGearMismatch = "gear-mismatch"
	AlertShift        = "gear-shift"

	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Alert is a displayable notice produced while observing live telemetry.
type Alert struct {
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
