package notify

import (
	"context"
	"time"

	"github.com/NissanArmada/GazooRazoo/pkg/model"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/gear"
)

// Feed runs points through the evaluator in timestamp order and sends the
// resulting events to out. With a positive rate Feed waits rate between two
// points. Feed does not close out.
func Feed(
	ctx context.Context,
	points []model.TelemetryPoint,
	ev *gear.Evaluator,
	driver string,
	rate time.Duration,
	out chan<- Event,
) error {
	var tick <-chan time.Time
	if rate > 0 {
		t := time.NewTicker(rate)
		defer t.Stop()
		tick = t.C
	}
	send := func(e Event) error {
		select {
		case out <- e:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for i := range points {
		if tick != nil && i > 0 {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		alerts, shift := ev.Observe(points[i])
		for j := range alerts {
			if alerts[j].Type == model.AlertShift {
				continue
			}
			if err := send(Event{Kind: KindAlert, Driver: driver, Alert: &alerts[j]}); err != nil {
				return err
			}
		}
		if shift != nil {
			if err := send(Event{Kind: KindShift, Driver: driver, Shift: shift}); err != nil {
				return err
			}
		}
	}
	return nil
}
