package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/interconnect"
)

type recordingHook struct {
	cycles  []CycleRecord
	phases  []PhaseChange
	started []*Transaction
	ended   []*Transaction
}

func (h *recordingHook) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosCycle:
		h.cycles = append(h.cycles, ctx.Item.(CycleRecord))
	case HookPosPhaseChange:
		h.phases = append(h.phases, ctx.Item.(PhaseChange))
	case HookPosTransactionStart:
		h.started = append(h.started, ctx.Item.(*Transaction))
	case HookPosTransactionEnd:
		h.ended = append(h.ended, ctx.Item.(*Transaction))
	}
}

func smallConfig(masters int, ranges ...addrmap.Range) interconnect.Config {
	amap, err := addrmap.New(16, ranges...)
	Expect(err).NotTo(HaveOccurred())

	return interconnect.Config{
		Masters:    masters,
		Slaves:     len(ranges),
		AddrWidth:  16,
		DataWidth:  32,
		AddressMap: amap,
	}
}

func twoSlaves(masters int) interconnect.Config {
	return smallConfig(masters,
		addrmap.Range{Low: 0x0000, High: 0x00FF},
		addrmap.Range{Low: 0x0100, High: 0x01FF},
	)
}

func buildSystem(cfg interconnect.Config, backend Backend) (*System, *recordingHook, *Scoreboard) {
	s, err := MakeBuilder().
		WithConfig(cfg).
		WithBackend(backend).
		WithMaxCycles(100_000).
		Build("System")
	Expect(err).NotTo(HaveOccurred())

	hook := &recordingHook{}
	s.AcceptHook(hook)

	sb := NewScoreboard(cfg.DataWidth)
	s.AcceptHook(sb)

	return s, hook, sb
}

func isIdleRequest(r axi.Request) bool {
	return r == axi.Request{}
}

func isIdleResponse(r axi.Response) bool {
	return r == axi.Response{}
}

var backends = []TableEntry{
	Entry("model", BackendModel),
	Entry("netlist", BackendNetlist),
}

var _ = Describe("System", func() {
	DescribeTable("should route a write and a read through a rebased window",
		func(backend Backend) {
			s, hook, sb := buildSystem(twoSlaves(1), backend)

			Expect(s.Enqueue(0, Write(0x0104, 0xDEADBEEF))).To(Succeed())
			Expect(s.Enqueue(0, ReadExpect(0x0104, 0xDEADBEEF))).To(Succeed())

			Expect(s.Run()).To(Succeed())
			Expect(sb.Err()).NotTo(HaveOccurred())
			Expect(sb.Checked()).To(Equal(1))

			word, err := s.Slave(1).Storage().ReadWord(0x0004, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(word).To(Equal(uint64(0xDEADBEEF)))
			Expect(s.Slave(0).Writes()).To(BeZero())

			var awAddrs, arAddrs []uint64
			for _, rec := range hook.cycles {
				for _, req := range rec.ToSlaves {
					if !req.AWValid {
						Expect(req.AWAddr).To(BeZero())
					}
					if !req.ARValid {
						Expect(req.ARAddr).To(BeZero())
					}
				}

				if rec.ToSlaves[1].AWValid {
					awAddrs = append(awAddrs, rec.ToSlaves[1].AWAddr)
				}
				if rec.ToSlaves[1].ARValid {
					arAddrs = append(arAddrs, rec.ToSlaves[1].ARAddr)
				}
			}
			Expect(awAddrs).To(ConsistOf(uint64(0x0004)))
			Expect(arAddrs).To(ConsistOf(uint64(0x0004)))

			Expect(hook.ended).To(HaveLen(2))
			read := hook.ended[1]
			Expect(read.Slave).To(Equal(1))
			Expect(read.RData).To(Equal(uint64(0xDEADBEEF)))
			Expect(read.Resp).To(Equal(axi.RespOkay))
		},
		backends,
	)

	DescribeTable("should always grant the lowest-index master first",
		func(backend Backend) {
			cfg := smallConfig(2, addrmap.Range{Low: 0x00, High: 0xFF})
			s, hook, sb := buildSystem(cfg, backend)

			for k := uint64(0); k < 3; k++ {
				Expect(s.Enqueue(0, Write(k*4, k))).To(Succeed())
				Expect(s.Enqueue(1, Write(0x80+k*4, k))).To(Succeed())
			}

			Expect(s.Run()).To(Succeed())
			Expect(sb.Err()).NotTo(HaveOccurred())

			var order []int
			for _, tx := range hook.ended {
				order = append(order, tx.Master)
			}
			Expect(order).To(Equal([]int{0, 0, 0, 1, 1, 1}))
		},
		backends,
	)

	DescribeTable("should return to IDLE one cycle after the final handshake",
		func(backend Backend) {
			s, hook, _ := buildSystem(twoSlaves(2), backend)

			Expect(s.Enqueue(0, Write(0x0010, 1))).To(Succeed())
			Expect(s.Enqueue(1, Read(0x0110))).To(Succeed())
			Expect(s.Enqueue(0, Read(0x0300))).To(Succeed())

			Expect(s.Run()).To(Succeed())
			Expect(hook.ended).To(HaveLen(3))

			for _, tx := range hook.ended {
				Expect(tx.Granted).To(BeTrue())
				Expect(hook.phases).To(ContainElement(
					HaveField("Cycle", tx.GrantCycle)))

				var toIdle []PhaseChange
				for _, p := range hook.phases {
					if p.Cycle == tx.EndCycle+1 {
						toIdle = append(toIdle, p)
					}
				}
				Expect(toIdle).To(HaveLen(1))
				Expect(toIdle[0].To.Phase).To(Equal(arbitration.PhaseIdle))
			}
		},
		backends,
	)

	DescribeTable("should answer decode misses itself",
		func(backend Backend) {
			s, hook, sb := buildSystem(twoSlaves(1), backend)

			Expect(s.Enqueue(0, Write(0x0300, 0x1234))).To(Succeed())
			Expect(s.Enqueue(0, ReadExpect(0x0300, 0))).To(Succeed())

			Expect(s.Run()).To(Succeed())
			Expect(sb.Err()).NotTo(HaveOccurred())

			Expect(hook.ended).To(HaveLen(2))
			for _, tx := range hook.ended {
				Expect(tx.Miss).To(BeTrue())
				Expect(tx.Slave).To(Equal(-1))
				Expect(tx.Resp).To(Equal(axi.RespOkay))
			}
			Expect(hook.ended[1].RData).To(BeZero())

			for j := 0; j < s.NumSlaves(); j++ {
				Expect(s.Slave(j).Writes()).To(BeZero())
				Expect(s.Slave(j).Reads()).To(BeZero())
			}

			for _, rec := range hook.cycles {
				for _, req := range rec.ToSlaves {
					Expect(isIdleRequest(req)).To(BeTrue())
				}
			}
		},
		backends,
	)

	DescribeTable("should bind at most one pair under random traffic",
		func(backend Backend, seed int64) {
			s, hook, sb := buildSystem(twoSlaves(3), backend)

			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 3*30; i++ {
				addr := uint64(r.Intn(0x100)) * 4
				op := Read(addr)
				if r.Intn(2) == 0 {
					op = Op{
						Kind:   arbitration.KindWrite,
						Addr:   addr,
						Data:   uint64(r.Uint32()),
						Strobe: uint8(r.Intn(16)),
					}
				}
				Expect(s.Enqueue(i%3, op)).To(Succeed())
			}

			Expect(s.Run()).To(Succeed())
			Expect(sb.Err()).NotTo(HaveOccurred())
			Expect(hook.ended).To(HaveLen(90))

			for _, rec := range hook.cycles {
				busySlaves := 0
				for _, req := range rec.ToSlaves {
					if !isIdleRequest(req) {
						busySlaves++
					}
				}

				busyMasters := 0
				for _, rsp := range rec.ToMasters {
					if !isIdleResponse(rsp) {
						busyMasters++
					}
				}

				Expect(busySlaves).To(BeNumerically("<=", 1))
				Expect(busyMasters).To(BeNumerically("<=", 1))
			}
		},
		Entry("model, seed 1", BackendModel, int64(1)),
		Entry("model, seed 42", BackendModel, int64(42)),
		Entry("netlist, seed 1", BackendNetlist, int64(1)),
		Entry("netlist, seed 42", BackendNetlist, int64(42)),
	)

	DescribeTable("should abort the transaction in flight on reset",
		func(backend Backend) {
			s, hook, _ := buildSystem(twoSlaves(1), backend)
			Expect(s.Enqueue(0, Write(0x0104, 1))).To(Succeed())

			for s.Snapshot().State.Phase == arbitration.PhaseIdle {
				Expect(s.Tick()).To(BeTrue())
			}

			tx := s.Master(0).Current()
			Expect(tx).NotTo(BeNil())
			Expect(tx.Granted).To(BeTrue())

			s.Reset(1)
			Expect(s.Tick()).To(BeTrue())

			snap := s.Snapshot()
			Expect(snap.State).To(Equal(arbitration.Reset(1, 2)))
			Expect(snap.Aborted).To(Equal(uint64(1)))
			Expect(tx.Aborted).To(BeTrue())
			Expect(hook.ended).To(ConsistOf(tx))

			Expect(s.Run()).To(Succeed())
			Expect(s.Slave(1).Writes()).To(BeZero())
		},
		backends,
	)

	It("should report a hang when the budget is too small", func() {
		s, err := MakeBuilder().
			WithConfig(twoSlaves(1)).
			WithMaxCycles(5).
			Build("System")
		Expect(err).NotTo(HaveOccurred())

		for k := uint64(0); k < 4; k++ {
			Expect(s.Enqueue(0, Write(k*4, k))).To(Succeed())
		}

		Expect(s.Run()).To(MatchError(ErrHang))
	})

	It("should keep a snapshot of a finished run", func() {
		s, _, _ := buildSystem(twoSlaves(2), BackendModel)
		Expect(s.Enqueue(1, Write(0x0004, 9))).To(Succeed())

		Expect(s.Run()).To(Succeed())

		snap := s.Snapshot()
		Expect(snap.Name).To(Equal("System"))
		Expect(snap.Completed).To(Equal(uint64(1)))
		Expect(snap.Pending).To(Equal([]int{0, 0}))
		Expect(snap.State.Phase).To(Equal(arbitration.PhaseIdle))

		txs := s.Transactions()
		Expect(txs).To(HaveLen(1))
		Expect(txs[0].Master).To(Equal(1))
		Expect(txs[0].Slave).To(Equal(0))
		Expect(txs[0].Latency()).To(Equal(uint64(3)))

		mp := s.MasterPort(1)
		Expect(mp.Out.BReady).To(BeTrue())
		Expect(mp.In.BValid).To(BeTrue())
		Expect(isIdleResponse(s.MasterPort(0).In)).To(BeTrue())

		sp := s.SlavePort(0)
		Expect(sp.LowAddr).To(Equal(uint64(0x0000)))
		Expect(sp.HighAddr).To(Equal(uint64(0x00FF)))
		Expect(sp.In.BReady).To(BeTrue())
		Expect(sp.Out.BValid).To(BeTrue())
		Expect(isIdleRequest(s.SlavePort(1).In)).To(BeTrue())
	})
})

var _ = Describe("Builder", func() {
	It("should reject data buses the simulator cannot carry", func() {
		cfg := twoSlaves(1)
		cfg.DataWidth = 128

		_, err := MakeBuilder().WithConfig(cfg).Build("System")

		Expect(err).To(MatchError(interconnect.ErrConfig))
	})

	It("should reject invalid configurations", func() {
		cfg := twoSlaves(1)
		cfg.Masters = 0

		_, err := MakeBuilder().WithConfig(cfg).Build("System")

		Expect(err).To(MatchError(interconnect.ErrConfig))
	})

	It("should back every slave with a storage as large as its window", func() {
		s, err := MakeBuilder().
			WithConfig(interconnect.DefaultConfig(1, 3)).
			Build("System")
		Expect(err).NotTo(HaveOccurred())

		for j := 0; j < 3; j++ {
			Expect(s.Slave(j).Storage().Capacity()).To(Equal(interconnect.DefaultSlotSize))
		}
	})

	It("should limit the master queues", func() {
		s, err := MakeBuilder().
			WithConfig(twoSlaves(1)).
			WithQueueCapacity(1).
			Build("System")
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Enqueue(0, Read(0))).To(Succeed())
		Expect(s.Enqueue(0, Read(4))).To(MatchError(ErrQueueFull))
	})
})
