package notify

import (
	"context"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

// LogSink writes events to a logger. Warnings are logged at warn level,
// everything else at info.
type LogSink struct {
	l *log.Logger
}

func NewLogSink(l *log.Logger) *LogSink {
	return &LogSink{l: l}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, ev Event) error {
	switch {
	case ev.Alert != nil:
		fields := []log.Field{
			log.String("driver", ev.Driver),
			log.String("type", ev.Alert.Type),
			log.Int64("timestamp", ev.Alert.Timestamp),
		}
		if ev.Alert.Severity == model.SeverityWarning {
			s.l.Warn(ev.Alert.Message, fields...)
		} else {
			s.l.Info(ev.Alert.Message, fields...)
		}
	case ev.Shift != nil:
		s.l.Info("gear shift",
			log.String("driver", ev.Driver),
			log.Int("from", ev.Shift.FromGear),
			log.Int("to", ev.Shift.ToGear),
			log.Float64("rpm", ev.Shift.RPMAtShift),
			log.String("class", string(ev.Shift.Classification)),
			log.Int64("timestamp", ev.Shift.Timestamp))
	}
	return nil
}

func (s *LogSink) Close() error {
	//nolint:errcheck // syncing stderr fails on some platforms
	s.l.Sync()
	return nil
}
