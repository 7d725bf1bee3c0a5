// Package stimulus produces the operations that simulated masters execute,
// either drawn at random or described by a Lua script.
package stimulus

import (
	"fmt"

	"github.com/sarchlab/axilite/sim"
)

// A Workload is a list of operations per master, in issue order.
type Workload struct {
	Ops [][]sim.Op
}

// NewWorkload creates an empty workload for the given number of masters.
func NewWorkload(masters int) Workload {
	return Workload{Ops: make([][]sim.Op, masters)}
}

// Len returns the total number of operations.
func (w Workload) Len() int {
	n := 0
	for _, ops := range w.Ops {
		n += len(ops)
	}

	return n
}

// Add appends op to master m.
func (w Workload) Add(m int, op sim.Op) {
	w.Ops[m] = append(w.Ops[m], op)
}

// Apply enqueues the workload on the masters of s.
func (w Workload) Apply(s *sim.System) error {
	if len(w.Ops) > s.NumMasters() {
		return fmt.Errorf("workload drives %d masters, %s has %d",
			len(w.Ops), s.Name(), s.NumMasters())
	}

	for m, ops := range w.Ops {
		for _, op := range ops {
			if err := s.Enqueue(m, op); err != nil {
				return err
			}
		}
	}

	return nil
}
