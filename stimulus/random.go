package stimulus

import (
	"math/rand"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/sim"
)

const (
	// PoolSize is the number of distinct addresses a random workload uses.
	PoolSize = 25

	// DefaultCount is the number of operations of the reference workload.
	DefaultCount = 50

	maxWordsPerWindow = 64
	readAttempts      = 5
)

type slot struct {
	addr    uint64
	data    uint64
	written bool
}

// Random draws count operations for the given masters. It picks PoolSize
// word-aligned addresses among the first words of randomly chosen slave
// windows, each with its own data word. Every operation is a write of one
// pool entry or, with equal odds, a read of an entry written before. A read
// that finds no written entry after a few attempts is skipped, so the
// workload may hold fewer than count operations.
//
// The same seed always yields the same workload.
func Random(seed int64, count, masters int, amap *addrmap.Map, dataWidth int) Workload {
	r := rand.New(rand.NewSource(seed))
	w := NewWorkload(masters)
	wordBytes := uint64(dataWidth / 8)

	pool := make([]slot, PoolSize)
	for i := range pool {
		rng := amap.Range(r.Intn(amap.Len()))

		words := rng.Size() / wordBytes
		if words > maxWordsPerWindow {
			words = maxWordsPerWindow
		}
		if words == 0 {
			words = 1
		}

		pool[i] = slot{
			addr: rng.Low + uint64(r.Int63n(int64(words)))*wordBytes,
			data: r.Uint64(),
		}
	}

	for k := 0; k < count; k++ {
		m := r.Intn(masters)

		if r.Intn(2) == 1 {
			idx := r.Intn(PoolSize)
			pool[idx].written = true
			w.Add(m, sim.Op{
				Kind: arbitration.KindWrite,
				Addr: pool[idx].addr,
				Data: pool[idx].data,
			})

			continue
		}

		found := -1
		for a := 0; a < readAttempts; a++ {
			idx := r.Intn(PoolSize)
			if pool[idx].written {
				found = idx
			}
		}

		if found >= 0 {
			w.Add(m, sim.Read(pool[found].addr))
		}
	}

	return w
}
