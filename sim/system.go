package sim

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/interconnect"
)

const historySize = 1024

// A System connects masters and slaves through a Fabric and ticks them
// cycle by cycle. Every cycle the agents drive their registered outputs,
// the fabric routes them, the agents sample what they observe and the
// fabric takes the clock edge.
type System struct {
	HookableBase

	name   string
	cfg    interconnect.Config
	amap   *addrmap.Map
	fabric Fabric
	engine *SerialEngine

	masters []*Master
	slaves  []*Slave

	lock      sync.RWMutex
	cycle     uint64
	resetLeft int
	state     arbitration.State
	pending   []int
	last      CycleRecord
	history   []*Transaction
	completed uint64
	aborted   uint64
	err       error
}

// Name returns the name of the system.
func (s *System) Name() string {
	return s.name
}

// Config returns the interconnect configuration.
func (s *System) Config() interconnect.Config {
	return s.cfg
}

// AddressMap returns the address map of the interconnect.
func (s *System) AddressMap() *addrmap.Map {
	return s.amap
}

// Engine returns the engine that runs the system.
func (s *System) Engine() Engine {
	return s.engine
}

// Master returns master i.
func (s *System) Master(i int) *Master {
	return s.masters[i]
}

// Slave returns slave j.
func (s *System) Slave(j int) *Slave {
	return s.slaves[j]
}

// NumMasters returns the number of masters.
func (s *System) NumMasters() int {
	return len(s.masters)
}

// NumSlaves returns the number of slaves.
func (s *System) NumSlaves() int {
	return len(s.slaves)
}

// Enqueue appends an operation to master i.
func (s *System) Enqueue(i int, op Op) error {
	if i < 0 || i >= len(s.masters) {
		log.Panicf("%s has no master %d", s.name, i)
	}

	return s.masters[i].Enqueue(op)
}

// Reset holds the reset asserted for the given number of cycles, starting
// with the next one.
func (s *System) Reset(cycles int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.resetLeft += cycles
}

// Run ticks the system until every queued operation is done. It returns
// ErrHang if that takes longer than the cycle budget.
func (s *System) Run() error {
	err := s.engine.Run()
	s.engine.Finished()

	if err != nil {
		return err
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.err
}

// Tick simulates one cycle. It returns false once nothing is left to do.
func (s *System) Tick() bool {
	s.lock.RLock()
	stop := s.err != nil || (s.resetLeft == 0 && s.quiescent())
	reset := s.resetLeft > 0
	cycle := s.cycle
	prev := s.state
	s.lock.RUnlock()

	if stop {
		return false
	}

	rec := CycleRecord{
		Cycle:     cycle,
		Reset:     reset,
		State:     prev,
		Requests:  make([]axi.Request, len(s.masters)),
		Responses: make([]axi.Response, len(s.slaves)),
	}

	for i, m := range s.masters {
		rec.Requests[i] = m.Outputs()
	}

	for j, sl := range s.slaves {
		rec.Responses[j] = sl.Outputs()
	}

	toMasters, toSlaves, err := s.fabric.Route(reset, rec.Requests, rec.Responses)
	if err != nil {
		s.fail(err)
		return false
	}

	rec.ToMasters = toMasters
	rec.ToSlaves = toSlaves

	if reset {
		s.resetAgents(cycle)
	} else {
		s.sampleAgents(cycle, toMasters, toSlaves)
	}

	if err := s.fabric.Clock(); err != nil {
		s.fail(err)
		return false
	}

	next := s.fabric.State()
	s.arbitrate(cycle, prev, next)

	if !reset {
		for _, m := range s.masters {
			if tx := m.issue(cycle); tx != nil {
				s.InvokeHook(HookCtx{Domain: s, Pos: HookPosTransactionStart, Item: tx})
			}
		}
	}

	s.lock.Lock()
	s.cycle++
	s.state = next
	s.last = rec
	if reset {
		s.resetLeft--
	}
	s.pending = s.pending[:0]
	for _, m := range s.masters {
		s.pending = append(s.pending, m.Pending())
	}
	s.lock.Unlock()

	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosCycle, Item: rec})

	return true
}

func (s *System) quiescent() bool {
	if s.state.Phase != arbitration.PhaseIdle {
		return false
	}

	for _, m := range s.masters {
		if m.Busy() {
			return false
		}
	}

	for _, sl := range s.slaves {
		if sl.Busy() {
			return false
		}
	}

	return true
}

func (s *System) fail(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.err = fmt.Errorf("%s: cycle %d: %w", s.name, s.cycle, err)
}

func (s *System) resetAgents(cycle uint64) {
	for _, m := range s.masters {
		if tx := m.reset(cycle); tx != nil {
			s.finish(tx)
		}
	}

	for _, sl := range s.slaves {
		sl.reset()
	}
}

func (s *System) sampleAgents(
	cycle uint64,
	toMasters []axi.Response,
	toSlaves []axi.Request,
) {
	for i, m := range s.masters {
		if tx := m.sample(cycle, toMasters[i]); tx != nil {
			s.finish(tx)
		}
	}

	for j, sl := range s.slaves {
		sl.sample(toSlaves[j])
	}
}

func (s *System) arbitrate(cycle uint64, prev, next arbitration.State) {
	if prev.Phase == next.Phase {
		return
	}

	if prev.Phase == arbitration.PhaseIdle {
		s.grant(cycle, next)
	}

	log.WithFields(log.Fields{
		"system": s.name,
		"cycle":  cycle + 1,
		"from":   prev.Phase,
		"to":     next.Phase,
		"master": next.Selection.Master,
		"slave":  next.Selection.Slave,
	}).Debug("arbiter phase change")

	s.InvokeHook(HookCtx{
		Domain: s,
		Pos:    HookPosPhaseChange,
		Item:   PhaseChange{Cycle: cycle + 1, From: prev, To: next},
	})
}

func (s *System) grant(cycle uint64, next arbitration.State) {
	m := next.Selection.Master
	if m < 0 || m >= len(s.masters) {
		log.Panicf("%s: arbiter granted master %d", s.name, m)
	}

	tx := s.masters[m].Current()
	if tx == nil {
		log.Panicf("%s: master %d granted without a request", s.name, m)
	}

	tx.Granted = true
	tx.GrantCycle = cycle + 1

	if next.Selection.Slave < len(s.slaves) {
		tx.Slave = next.Selection.Slave
	} else {
		tx.Miss = true
	}
}

func (s *System) finish(tx *Transaction) {
	s.lock.Lock()
	if tx.Aborted {
		s.aborted++
	} else {
		s.completed++
	}

	s.history = append(s.history, tx)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.lock.Unlock()

	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosTransactionEnd, Item: tx})
}

// Snapshot is a consistent view of a running system.
type Snapshot struct {
	Name      string
	Cycle     uint64
	Reset     bool
	State     arbitration.State
	Pending   []int
	Completed uint64
	Aborted   uint64
}

// Snapshot returns the state of the system at the end of the last cycle.
// It is safe to call while the system runs.
func (s *System) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()

	snap := Snapshot{
		Name:      s.name,
		Cycle:     s.cycle,
		Reset:     s.resetLeft > 0,
		State:     s.state,
		Pending:   append([]int(nil), s.pending...),
		Completed: s.completed,
		Aborted:   s.aborted,
	}

	return snap
}

// MasterPort returns the signals exchanged with master i in the last cycle.
func (s *System) MasterPort(i int) axi.MasterPort {
	if i < 0 || i >= len(s.masters) {
		log.Panicf("%s has no master %d", s.name, i)
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	p := axi.MasterPort{Index: i}
	if s.last.ToMasters != nil {
		p.Out = s.last.Requests[i]
		p.In = s.last.ToMasters[i]
	}

	return p
}

// SlavePort returns the signals exchanged with slave j in the last cycle.
func (s *System) SlavePort(j int) axi.SlavePort {
	if j < 0 || j >= len(s.slaves) {
		log.Panicf("%s has no slave %d", s.name, j)
	}

	r := s.amap.Range(j)

	s.lock.RLock()
	defer s.lock.RUnlock()

	p := axi.SlavePort{Index: j, LowAddr: r.Low, HighAddr: r.High}
	if s.last.ToSlaves != nil {
		p.In = s.last.ToSlaves[j]
		p.Out = s.last.Responses[j]
	}

	return p
}

// Transactions returns copies of the most recently finished transactions,
// oldest first.
func (s *System) Transactions() []Transaction {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]Transaction, len(s.history))
	for i, tx := range s.history {
		out[i] = *tx
	}

	return out
}
