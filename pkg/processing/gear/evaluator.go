package gear

import (
	"fmt"
	"math"
	"sync"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

// Evaluator classifies gear changes of a telemetry stream. It keeps the
// previous point and a running scorecard, one evaluator per session.
type Evaluator struct {
	table *Table
	l     *log.Logger

	mu    sync.Mutex
	prev  model.TelemetryPoint
	seen  bool
	score Scorecard
}

type Option func(*Evaluator)

func WithTable(t *Table) Option {
	return func(e *Evaluator) {
		e.table = t
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Evaluator) {
		e.l = l
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		table: DefaultTable(),
		l:     log.Default().Named("gear"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Table() *Table {
	return e.table
}

// Observe processes the next point of the stream. It returns the alerts raised
// by the point and the classified shift, if any.
func (e *Evaluator) Observe(p model.TelemetryPoint) (alerts []model.Alert, shift *model.GearShiftEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if want := e.table.OptimalGear(p.Speed); p.Gear != want {
		alerts = append(alerts, model.Alert{
			Type:      model.AlertGearMismatch,
			Severity:  model.SeverityWarning,
			Message:   fmt.Sprintf("gear %d at %.1f km/h, optimal is %d", p.Gear, p.Speed, want),
			Timestamp: p.Timestamp,
		})
	}
	if e.seen {
		shift = e.classify(e.prev, p)
	}
	if shift != nil {
		e.score.add(shift.Classification)
		alerts = append(alerts, model.Alert{
			Type:     model.AlertShift,
			Severity: model.SeverityInfo,
			Message: fmt.Sprintf("%d->%d at %.0f rpm: %s",
				shift.FromGear, shift.ToGear, shift.RPMAtShift, shift.Classification),
			Timestamp: p.Timestamp,
		})
		e.l.Debug("shift classified",
			log.Int("from", shift.FromGear),
			log.Int("to", shift.ToGear),
			log.Float64("rpm", shift.RPMAtShift),
			log.String("class", string(shift.Classification)))
	}
	e.prev = p
	e.seen = true
	return alerts, shift
}

func (e *Evaluator) classify(prev, cur model.TelemetryPoint) *model.GearShiftEvent {
	ev := &model.GearShiftEvent{
		Timestamp:  cur.Timestamp,
		FromGear:   prev.Gear,
		ToGear:     cur.Gear,
		RPMAtShift: prev.RPM,
	}
	switch cur.Gear - prev.Gear {
	case 1:
		target, ok := e.table.ShiftRPM[ShiftKey(prev.Gear, cur.Gear)]
		if !ok {
			return nil
		}
		switch {
		case math.Abs(prev.RPM-target) <= e.table.Tolerance:
			ev.Classification = model.ShiftOptimal
		case prev.RPM < target:
			ev.Classification = model.ShiftEarly
		default:
			ev.Classification = model.ShiftLate
		}
	case -1:
		switch {
		case prev.RPM < e.table.DownshiftEarlyMax:
			ev.Classification = model.ShiftEarly
		case prev.RPM > e.table.DownshiftLateMin:
			ev.Classification = model.ShiftLate
		default:
			ev.Classification = model.ShiftOptimal
		}
	default:
		return nil
	}
	return ev
}

func (e *Evaluator) Scorecard() Scorecard {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

// Reset clears the stream state and the scorecard
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prev = model.TelemetryPoint{}
	e.seen = false
	e.score = Scorecard{}
}

// Summary is the result of evaluating a complete series
type Summary struct {
	Shifts     []model.GearShiftEvent `json:"shifts"`
	Mismatches int                    `json:"mismatches"`
	Scorecard  Scorecard              `json:"scorecard"`
	Grade      string                 `json:"grade"`
	Percentage float64                `json:"percentage"`
}

// Evaluate runs a fresh evaluator with the same table over points
func (e *Evaluator) Evaluate(points []model.TelemetryPoint) *Summary {
	run := NewEvaluator(WithTable(e.table), WithLogger(e.l))
	ret := &Summary{Shifts: []model.GearShiftEvent{}}
	for i := range points {
		alerts, shift := run.Observe(points[i])
		for _, a := range alerts {
			if a.Type == model.AlertGearMismatch {
				ret.Mismatches++
			}
		}
		if shift != nil {
			ret.Shifts = append(ret.Shifts, *shift)
		}
	}
	ret.Scorecard = run.Scorecard()
	ret.Grade = ret.Scorecard.Grade()
	ret.Percentage = ret.Scorecard.Percentage().Round(1).InexactFloat64()
	return ret
}
