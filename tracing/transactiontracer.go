package tracing

import (
	"fmt"

	"github.com/sarchlab/axilite/sim"
)

// TransactionTableName is the table written by a TransactionTracer.
const TransactionTableName = "axi_transaction"

// transactionEntry is one row of the transaction table. Addresses and data
// are hexadecimal strings so that 64-bit values survive SQLite's signed
// integers.
type transactionEntry struct {
	ID         string
	System     string
	Master     int
	Slave      int
	Miss       bool
	Kind       string
	Addr       string
	Data       string
	Strobe     uint8
	RData      string
	Resp       string
	Aborted    bool
	StartCycle uint64
	GrantCycle uint64
	EndCycle   uint64
	StartTime  float64
	EndTime    float64
}

// TransactionTracer is a hook that records one row per finished
// transaction.
type TransactionTracer struct {
	recorder DataRecorder
	freq     sim.Freq
}

// NewTransactionTracer creates a tracer that writes into recorder. Cycle
// numbers are converted to seconds with freq.
func NewTransactionTracer(recorder DataRecorder, freq sim.Freq) *TransactionTracer {
	recorder.CreateTable(TransactionTableName, transactionEntry{})

	return &TransactionTracer{
		recorder: recorder,
		freq:     freq,
	}
}

// Func records the transaction of a HookPosTransactionEnd context.
func (t *TransactionTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosTransactionEnd {
		return
	}

	tx, ok := ctx.Item.(*sim.Transaction)
	if !ok {
		return
	}

	system := ""
	if s, ok := ctx.Domain.(*sim.System); ok {
		system = s.Name()
	}

	t.recorder.InsertData(TransactionTableName, transactionEntry{
		ID:         tx.ID,
		System:     system,
		Master:     tx.Master,
		Slave:      tx.Slave,
		Miss:       tx.Miss,
		Kind:       tx.Op.Kind.String(),
		Addr:       hex(tx.Op.Addr),
		Data:       hex(tx.Op.Data),
		Strobe:     tx.Op.Strobe,
		RData:      hex(tx.RData),
		Resp:       tx.Resp.String(),
		Aborted:    tx.Aborted,
		StartCycle: tx.StartCycle,
		GrantCycle: tx.GrantCycle,
		EndCycle:   tx.EndCycle,
		StartTime:  float64(t.freq.Time(tx.StartCycle - 1)),
		EndTime:    float64(t.freq.Time(tx.EndCycle)),
	})
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
