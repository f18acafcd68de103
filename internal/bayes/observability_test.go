package bayes

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingObserver struct {
	mu      sync.Mutex
	queries []string
}

func (c *countingObserver) ObserveQuery(ev QueryEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, ev.Query)
}

func (c *countingObserver) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

func TestAsyncQueryObserver_DeliversEventsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	spy := &countingObserver{}
	async := NewAsyncQueryObserver(spy, 8)

	async.ObserveQuery(QueryEvent{Query: "R", Duration: time.Millisecond})
	async.ObserveQuery(QueryEvent{Query: "S", Duration: 2 * time.Millisecond})
	async.Close()

	assert.Equal(t, 2, spy.Count())
}

func TestAsyncQueryObserver_DropsWhenBufferIsFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	spy := &countingObserver{}
	async := NewAsyncQueryObserver(spy, 1)

	for i := 0; i < 1000; i++ {
		async.ObserveQuery(QueryEvent{Query: "q"})
	}
	async.Close()

	assert.NotZero(t, async.Dropped())
	assert.Equal(t, uint64(1000), async.Dropped()+uint64(spy.Count()))
}

func TestAsyncQueryObserver_CloseDuringConcurrentObserveDoesNotPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	async := NewAsyncQueryObserver(&countingObserver{}, 32)

	const workers = 8
	const perWorker = 200
	var wg sync.WaitGroup
	var panics atomic.Int32

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if recover() != nil {
					panics.Add(1)
				}
			}()
			for j := 0; j < perWorker; j++ {
				async.ObserveQuery(QueryEvent{Query: "q"})
			}
		}()
	}

	time.Sleep(time.Millisecond)
	async.Close()
	async.Close()
	wg.Wait()

	assert.Zero(t, panics.Load())
}

func TestQueryLogger_LogsStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewQueryLogger(zap.New(core))

	l.ObserveQuery(QueryEvent{Network: "asia", Query: "D", Evidence: 1, Assignments: 128, Duration: 1500 * time.Microsecond})
	l.ObserveQuery(QueryEvent{Network: "asia", Query: "D", Err: &QueryInEvidenceError{Variable: "D"}})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, "bayes_query", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "asia", fields["network"])
	assert.Equal(t, int64(128), fields["assignments"])
	assert.Equal(t, 1.5, fields["duration_ms"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "query", entries[1].ContextMap()["kind"])
}

func TestMultiObserver_FansOut(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	MultiObserver{a, nil, b}.ObserveQuery(QueryEvent{Query: "x"})
	assert.Equal(t, 1, a.Count())
	assert.Equal(t, 1, b.Count())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "structural", Kind(&DuplicateVariableError{Name: "A"}))
	assert.Equal(t, "cpt", Kind(&NonNormalizedDistributionError{Variable: "A"}))
	assert.Equal(t, "query", Kind(&ZeroEvidenceProbabilityError{Query: "A"}))
	assert.Equal(t, "", Kind(errors.New("boom")))
	assert.Equal(t, "", Kind(nil))
}
