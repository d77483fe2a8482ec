package broadcast

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/NissanArmada/GazooRazoo/log"
)

// Server fans out every message received on its source channel to all
// subscribers. A subscriber that does not take a message within the skip
// timeout misses that message.
type Server[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	// Done is closed once the source is drained or the server was closed and
	// all subscriber channels have been closed.
	Done() <-chan struct{}
	Close()
}

type (
	Option[T any] func(*server[T])
	server[T any] struct {
		name           string
		source         <-chan T
		listeners      []chan T
		addListener    chan chan T
		removeListener chan (<-chan T)
		ctx            context.Context
		cancel         context.CancelFunc
		done           chan struct{}
		skipTimeout    time.Duration
		l              *log.Logger
		numRcv         atomic.Int64
		numSnd         atomic.Int64
		numSkip        atomic.Int64
		numListener    atomic.Int64
	}
)

func WithSkipTimeout[T any](d time.Duration) Option[T] {
	return func(s *server[T]) {
		s.skipTimeout = d
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(s *server[T]) {
		s.l = l
	}
}

func New[T any](name string, source <-chan T, opts ...Option[T]) Server[T] {
	ctx, cancel := context.WithCancel(context.Background())
	s := &server[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		skipTimeout:    50 * time.Millisecond,
		l:              log.Default().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMetrics()
	go s.serve()
	return s
}

// Subscribe registers a new listener. The returned channel is closed when the
// server stops.
func (s *server[T]) Subscribe() <-chan T {
	ch := make(chan T)
	select {
	case s.addListener <- ch:
	case <-s.done:
		close(ch)
	}
	return ch
}

func (s *server[T]) CancelSubscription(ch <-chan T) {
	select {
	case s.removeListener <- ch:
	case <-s.done:
	}
}

func (s *server[T]) Done() <-chan struct{} {
	return s.done
}

func (s *server[T]) Close() {
	s.cancel()
	<-s.done
}

func (s *server[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("gazoo.broadcast")
	attrs := metric.WithAttributes(attribute.String("name", s.name))
	for _, d := range []struct {
		name  string
		desc  string
		value *atomic.Int64
	}{
		{"gazoo.broadcast.rcv", "Number of received messages", &s.numRcv},
		{"gazoo.broadcast.snd", "Number of sent messages", &s.numSnd},
		{"gazoo.broadcast.skip", "Number of skipped messages", &s.numSkip},
		{"gazoo.broadcast.listener", "Number of listeners", &s.numListener},
	} {
		value := d.value
		if _, err := meter.Int64ObservableGauge(
			d.name,
			metric.WithDescription(d.desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value.Load(), attrs)
				return nil
			})); err != nil {
			s.l.Error("failed to register metric",
				log.String("metric", d.name), log.ErrorField(err))
		}
	}
}

//nolint:cyclop // by design
func (s *server[T]) serve() {
	defer func() {
		for _, listener := range s.listeners {
			close(listener)
		}
		s.listeners = nil
		s.l.Info("broadcast server closed",
			log.String("name", s.name),
			log.Int64("rcv", s.numRcv.Load()),
			log.Int64("snd", s.numSnd.Load()),
			log.Int64("skip", s.numSkip.Load()))
		close(s.done)
	}()
	for {
		select {
		case <-s.ctx.Done():
			return
		case ch := <-s.addListener:
			s.listeners = append(s.listeners, ch)
			s.numListener.Store(int64(len(s.listeners)))
		case ch := <-s.removeListener:
			for i, listener := range s.listeners {
				if listener == ch {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					close(listener)
					break
				}
			}
			s.numListener.Store(int64(len(s.listeners)))
			s.l.Debug("removed listener",
				log.String("name", s.name), log.Int("len", len(s.listeners)))
		case msg, ok := <-s.source:
			if !ok {
				return
			}
			s.numRcv.Add(1)
			s.send(msg)
		}
	}
}

func (s *server[T]) send(msg T) {
	for _, listener := range s.listeners {
		timer := time.NewTimer(s.skipTimeout)
		select {
		case listener <- msg:
			s.numSnd.Add(1)
		case <-timer.C:
			s.numSkip.Add(1)
			s.l.Warn("listener too slow, message skipped",
				log.String("name", s.name),
				log.Duration("timeout", s.skipTimeout))
		}
		timer.Stop()
	}
}

func (s *server[T]) String() string {
	return fmt.Sprintf("broadcast(%s)", s.name)
}
