// Package notify delivers alerts and shift events produced while replaying
// telemetry to external sinks.
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/model"
	"github.com/NissanArmada/GazooRazoo/pkg/utils/broadcast"
)

const (
	KindAlert = "alert"
	KindShift = "shift"
)

// Event is one message sent to the sinks. Exactly one of Alert and Shift is
// set, matching Kind.
type Event struct {
	Kind   string                `json:"kind"`
	Driver string                `json:"driver"`
	Alert  *model.Alert          `json:"alert,omitempty"`
	Shift  *model.GearShiftEvent `json:"shift,omitempty"`
}

type Sink interface {
	Name() string
	Send(ctx context.Context, ev Event) error
	Close() error
}

// Dispatcher forwards the events of a broadcast server to sinks, one
// subscription per sink.
type Dispatcher struct {
	server broadcast.Server[Event]
	sinks  []Sink
	l      *log.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(server broadcast.Server[Event], l *log.Logger, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{server: server, sinks: sinks, l: l}
	for _, sink := range sinks {
		ch := server.Subscribe()
		d.wg.Add(1)
		go d.forward(sink, ch)
	}
	return d
}

func (d *Dispatcher) forward(sink Sink, ch <-chan Event) {
	defer d.wg.Done()
	for ev := range ch {
		if err := sink.Send(context.Background(), ev); err != nil {
			d.l.Warn("sink failed",
				log.String("sink", sink.Name()),
				log.String("kind", ev.Kind),
				log.ErrorField(err))
		}
	}
}

// Wait blocks until the broadcast server has stopped, all forwarded events
// are delivered and the sinks are closed.
func (d *Dispatcher) Wait() error {
	d.wg.Wait()
	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
