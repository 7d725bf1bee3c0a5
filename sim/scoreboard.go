package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
)

// ErrMismatch is returned by Scoreboard.Err when a read did not return what
// was written.
var ErrMismatch = errors.New("read data mismatch")

// A Mismatch is one failed check.
type Mismatch struct {
	Transaction Transaction
	Want        uint64
	Reason      string
}

func (m Mismatch) String() string {
	tx := m.Transaction

	return fmt.Sprintf("transaction %s (master %d, %s): %s, want 0x%x, got 0x%x",
		tx.ID, tx.Master, tx.Op, m.Reason, m.Want, tx.RData)
}

// A Scoreboard is a hook that replays completed transactions on a reference
// memory and checks every read against it. Writes that decode to no slave
// are dropped and reads that decode to no slave must return zero.
type Scoreboard struct {
	width int

	lock       sync.Mutex
	memory     map[uint64]byte
	checked    int
	mismatches []Mismatch
}

// NewScoreboard creates a scoreboard for a data bus of the given width in
// bits.
func NewScoreboard(dataWidth int) *Scoreboard {
	return &Scoreboard{
		width:  dataWidth / 8,
		memory: make(map[uint64]byte),
	}
}

// Func checks the transaction carried by a HookPosTransactionEnd context.
func (s *Scoreboard) Func(ctx HookCtx) {
	if ctx.Pos != HookPosTransactionEnd {
		return
	}

	tx, ok := ctx.Item.(*Transaction)
	if !ok || tx.Aborted {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if tx.Resp != axi.RespOkay {
		s.fail(tx, 0, "response "+tx.Resp.String())
		return
	}

	switch tx.Op.Kind {
	case arbitration.KindWrite:
		if !tx.Miss {
			s.write(tx.Op)
		}
	case arbitration.KindRead:
		s.check(tx)
	}
}

func (s *Scoreboard) write(op Op) {
	for i := 0; i < s.width; i++ {
		if op.Strobe&(1<<uint(i)) != 0 {
			s.memory[op.Addr+uint64(i)] = byte(op.Data >> (8 * uint(i)))
		}
	}
}

func (s *Scoreboard) read(addr uint64) uint64 {
	var word uint64
	for i := s.width - 1; i >= 0; i-- {
		word = word<<8 | uint64(s.memory[addr+uint64(i)])
	}

	return word
}

func (s *Scoreboard) check(tx *Transaction) {
	s.checked++

	want := uint64(0)
	if !tx.Miss {
		want = s.read(tx.Op.Addr)
	}

	if tx.RData != want {
		s.fail(tx, want, "reference memory differs")
		return
	}

	if tx.Op.Check && tx.RData != tx.Op.Expect {
		s.fail(tx, tx.Op.Expect, "unexpected data")
	}
}

func (s *Scoreboard) fail(tx *Transaction, want uint64, reason string) {
	s.mismatches = append(s.mismatches, Mismatch{
		Transaction: *tx,
		Want:        want,
		Reason:      reason,
	})
}

// Checked returns the number of reads checked so far.
func (s *Scoreboard) Checked() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.checked
}

// Mismatches returns the failed checks in completion order.
func (s *Scoreboard) Mismatches() []Mismatch {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]Mismatch(nil), s.mismatches...)
}

// Err returns nil if every check passed, or an error describing the first
// failure.
func (s *Scoreboard) Err() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.mismatches) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %d failed check(s), first: %s",
		ErrMismatch, len(s.mismatches), s.mismatches[0])
}
