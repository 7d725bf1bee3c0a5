package sim

import (
	"errors"
	"fmt"

	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
)

// ErrQueueFull is returned when a master cannot take more operations.
var ErrQueueFull = errors.New("master queue is full")

// A Master executes queued operations one at a time. Its outputs are
// registered: a decision taken during one cycle is driven from the next.
//
// A write drives AWVALID and WVALID together and drops each one on its
// handshake. BREADY rises once both are accepted. A read drives ARVALID
// until accepted and then RREADY.
type Master struct {
	name  string
	index int

	queue *Buffer[Op]
	idGen IDGenerator

	addrMask   uint64
	dataMask   uint64
	fullStrobe uint8

	out axi.Request
	tx  *Transaction
}

func newMaster(
	name string,
	index int,
	queueCapacity int,
	idGen IDGenerator,
	addrWidth, dataWidth int,
) *Master {
	return &Master{
		name:       name,
		index:      index,
		queue:      NewBuffer[Op](name+".Queue", queueCapacity),
		idGen:      idGen,
		addrMask:   widthMask(addrWidth),
		dataMask:   widthMask(dataWidth),
		fullStrobe: uint8(widthMask(dataWidth / 8)),
	}
}

// Name returns the name of the master.
func (m *Master) Name() string {
	return m.name
}

// Index returns the port index of the master on the interconnect.
func (m *Master) Index() int {
	return m.index
}

// Enqueue appends an operation.
func (m *Master) Enqueue(op Op) error {
	if !m.queue.CanPush() {
		return fmt.Errorf("%w: %s holds %d operations",
			ErrQueueFull, m.name, m.queue.Capacity())
	}

	op.Addr &= m.addrMask
	op.Data &= m.dataMask
	if op.Strobe == 0 || op.Kind == arbitration.KindRead {
		op.Strobe = m.fullStrobe
	}

	m.queue.Push(op)

	return nil
}

// Pending returns the number of queued operations, excluding the one in
// flight.
func (m *Master) Pending() int {
	return m.queue.Size()
}

// Current returns the transaction in flight, or nil.
func (m *Master) Current() *Transaction {
	return m.tx
}

// Busy tells whether the master has work left.
func (m *Master) Busy() bool {
	return m.tx != nil || m.queue.Size() > 0
}

// Outputs returns the signals driven during the current cycle.
func (m *Master) Outputs() axi.Request {
	return m.out
}

// sample looks at what the interconnect routes to the master during cycle
// and updates the registered outputs. It returns the transaction that
// completed, if any.
func (m *Master) sample(cycle uint64, rsp axi.Response) *Transaction {
	if m.tx == nil {
		return nil
	}

	req := m.out

	switch m.tx.Op.Kind {
	case arbitration.KindWrite:
		if axi.WriteRespDone(req, rsp) {
			m.tx.Resp = rsp.BResp
			return m.complete(cycle)
		}

		if axi.WriteAddrDone(req, rsp) {
			m.out.AWValid = false
			m.out.AWAddr = 0
		}

		if axi.WriteDataDone(req, rsp) {
			m.out.WValid = false
			m.out.WData = 0
			m.out.WStrb = 0
		}

		m.out.BReady = !m.out.AWValid && !m.out.WValid
	case arbitration.KindRead:
		if axi.ReadDataDone(req, rsp) {
			m.tx.Resp = rsp.RResp
			m.tx.RData = rsp.RData
			return m.complete(cycle)
		}

		if axi.ReadAddrDone(req, rsp) {
			m.out.ARValid = false
			m.out.ARAddr = 0
			m.out.RReady = true
		}
	}

	return nil
}

func (m *Master) complete(cycle uint64) *Transaction {
	tx := m.tx
	tx.EndCycle = cycle

	m.tx = nil
	m.out = axi.Request{}

	return tx
}

// issue starts the next queued operation when the master is free. The
// request is driven from the cycle after cycle.
func (m *Master) issue(cycle uint64) *Transaction {
	if m.tx != nil {
		return nil
	}

	op, ok := m.queue.Pop()
	if !ok {
		return nil
	}

	m.tx = &Transaction{
		ID:         m.idGen.Generate(),
		Master:     m.index,
		Op:         op,
		Slave:      -1,
		StartCycle: cycle + 1,
	}

	switch op.Kind {
	case arbitration.KindWrite:
		m.out = axi.Request{
			AWValid: true,
			AWAddr:  op.Addr,
			WValid:  true,
			WData:   op.Data,
			WStrb:   op.Strobe,
		}
	case arbitration.KindRead:
		m.out = axi.Request{
			ARValid: true,
			ARAddr:  op.Addr,
		}
	default:
		panic(fmt.Sprintf("%s: cannot issue %s", m.name, op))
	}

	return m.tx
}

// reset drops the outputs. The transaction in flight, if any, is aborted
// and returned. Queued operations stay.
func (m *Master) reset(cycle uint64) *Transaction {
	tx := m.tx
	if tx != nil {
		tx.Aborted = true
		tx.EndCycle = cycle
	}

	m.tx = nil
	m.out = axi.Request{}

	return tx
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << uint(width)) - 1
}
