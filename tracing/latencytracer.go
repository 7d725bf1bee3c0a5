package tracing

import (
	"sync"

	"github.com/sarchlab/axilite/sim"
)

// LatencyTracer collects the latency of the completed transactions of
// every master. Aborted transactions are not counted.
type LatencyTracer struct {
	lock    sync.Mutex
	count   map[int]uint64
	total   map[int]uint64
	maximum map[int]uint64
}

// NewLatencyTracer creates a new LatencyTracer.
func NewLatencyTracer() *LatencyTracer {
	return &LatencyTracer{
		count:   make(map[int]uint64),
		total:   make(map[int]uint64),
		maximum: make(map[int]uint64),
	}
}

// Func accumulates the transaction of a HookPosTransactionEnd context.
func (t *LatencyTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosTransactionEnd {
		return
	}

	tx, ok := ctx.Item.(*sim.Transaction)
	if !ok || tx.Aborted {
		return
	}

	latency := tx.Latency()

	t.lock.Lock()
	defer t.lock.Unlock()

	t.count[tx.Master]++
	t.total[tx.Master] += latency
	if latency > t.maximum[tx.Master] {
		t.maximum[tx.Master] = latency
	}
}

// Count returns the number of completed transactions of master m.
func (t *LatencyTracer) Count(m int) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count[m]
}

// AverageLatency returns the mean latency of master m in cycles, or 0 if
// it completed nothing.
func (t *LatencyTracer) AverageLatency(m int) float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.count[m] == 0 {
		return 0
	}

	return float64(t.total[m]) / float64(t.count[m])
}

// MaxLatency returns the longest latency of master m in cycles.
func (t *LatencyTracer) MaxLatency(m int) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maximum[m]
}
