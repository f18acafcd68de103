package bayes

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// QueryEvent is reported once per query, successful or not.
type QueryEvent struct {
	Network     string
	Query       string
	Evidence    int
	Assignments int64
	Duration    time.Duration
	Err         error
}

type QueryObserver interface {
	ObserveQuery(ev QueryEvent)
}

type QueryLogger struct {
	logger *zap.Logger
}

func NewQueryLogger(logger *zap.Logger) *QueryLogger {
	return &QueryLogger{logger: logger}
}

func (l *QueryLogger) ObserveQuery(ev QueryEvent) {
	if l == nil || l.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("network", ev.Network),
		zap.String("query", ev.Query),
		zap.Int("evidence", ev.Evidence),
		zap.Int64("assignments", ev.Assignments),
		zap.Float64("duration_ms", float64(ev.Duration.Microseconds())/1000.0),
	}
	if ev.Err != nil {
		l.logger.Warn("bayes_query_failed", append(fields, zap.String("kind", Kind(ev.Err)), zap.Error(ev.Err))...)
		return
	}
	l.logger.Debug("bayes_query", fields...)
}

// MultiObserver fans an event out to every observer in order.
type MultiObserver []QueryObserver

func (m MultiObserver) ObserveQuery(ev QueryEvent) {
	for _, o := range m {
		if o != nil {
			o.ObserveQuery(ev)
		}
	}
}

// AsyncQueryObserver hands events to next on a background goroutine. When the
// buffer is full events are dropped and counted, so queries never block on
// a slow sink.
type AsyncQueryObserver struct {
	next    QueryObserver
	events  chan QueryEvent
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

func NewAsyncQueryObserver(next QueryObserver, buffer int) *AsyncQueryObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncQueryObserver{
		next:   next,
		events: make(chan QueryEvent, buffer),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range o.events {
			if o.next == nil {
				continue
			}
			o.next.ObserveQuery(ev)
		}
	}()

	return o
}

func (o *AsyncQueryObserver) ObserveQuery(ev QueryEvent) {
	if o == nil {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.events <- ev:
	default:
		o.dropped.Add(1)
	}
}

func (o *AsyncQueryObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

// Close drains pending events and stops the worker. Safe to call twice.
func (o *AsyncQueryObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()
		o.wg.Wait()
	})
}
