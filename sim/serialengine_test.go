package sim

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type endCounter struct {
	cycles []uint64
}

func (c *endCounter) Handle(cycle uint64) {
	c.cycles = append(c.cycles, cycle)
}

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		ticker   *MockTicker
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		ticker = NewMockTicker(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should tick until no progress is made", func() {
		ticker.EXPECT().Tick().Return(true).Times(3)
		ticker.EXPECT().Tick().Return(false)

		engine := NewSerialEngine(ticker, 100)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentCycle()).To(Equal(uint64(3)))
	})

	It("should report a hang when the budget runs out", func() {
		ticker.EXPECT().Tick().Return(true).Times(10)

		engine := NewSerialEngine(ticker, 10)

		err := engine.Run()

		Expect(err).To(MatchError(ErrHang))
		Expect(engine.CurrentCycle()).To(Equal(uint64(10)))
	})

	It("should invoke hooks around every tick", func() {
		ticker.EXPECT().Tick().Return(true).Times(2)
		ticker.EXPECT().Tick().Return(false)

		hook := NewMockHook(mockCtrl)
		var positions []*HookPos
		hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos)
		}).Times(5)

		engine := NewSerialEngine(ticker, 0)
		engine.AcceptHook(hook)

		Expect(engine.Run()).To(Succeed())
		Expect(positions).To(Equal([]*HookPos{
			HookPosBeforeTick, HookPosAfterTick,
			HookPosBeforeTick, HookPosAfterTick,
			HookPosBeforeTick,
		}))
	})

	It("should call the simulation end handlers", func() {
		ticker.EXPECT().Tick().Return(true)
		ticker.EXPECT().Tick().Return(false)

		engine := NewSerialEngine(ticker, 0)
		handler := &endCounter{}
		engine.RegisterSimulationEndHandler(handler)

		Expect(engine.Run()).To(Succeed())
		engine.Finished()

		Expect(handler.cycles).To(Equal([]uint64{1}))
	})

	It("should not tick while paused", func() {
		ticker.EXPECT().Tick().Return(false)

		engine := NewSerialEngine(ticker, 0)
		engine.Pause()
		Expect(engine.IsPaused()).To(BeTrue())

		done := make(chan error)
		go func() {
			done <- engine.Run()
		}()

		Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

		engine.Continue()
		Expect(engine.IsPaused()).To(BeFalse())
		Eventually(done).Should(Receive(BeNil()))
	})
})
