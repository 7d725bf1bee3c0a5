package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/sim"
)

var _ = Describe("TransactionTracer", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		tracer   *TransactionTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)

		recorder.EXPECT().CreateTable(TransactionTableName, transactionEntry{})
		tracer = NewTransactionTracer(recorder, 1*sim.GHz)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record finished transactions", func() {
		tx := &sim.Transaction{
			ID:         "7",
			Master:     1,
			Slave:      0,
			Op:         sim.Write(0xFFFF_FFFF_FFFF_FFF0, 0xAB),
			Resp:       axi.RespOkay,
			StartCycle: 3,
			GrantCycle: 4,
			EndCycle:   5,
		}

		recorder.EXPECT().
			InsertData(TransactionTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				e := entry.(transactionEntry)
				Expect(e.ID).To(Equal("7"))
				Expect(e.Master).To(Equal(1))
				Expect(e.Kind).To(Equal("write"))
				Expect(e.Addr).To(Equal("0xfffffffffffffff0"))
				Expect(e.Data).To(Equal("0xab"))
				Expect(e.Resp).To(Equal("OKAY"))
				Expect(e.EndCycle).To(Equal(uint64(5)))
				Expect(e.StartTime).To(BeNumerically("~", 3e-9))
				Expect(e.EndTime).To(BeNumerically("~", 6e-9))
			})

		tracer.Func(sim.HookCtx{Pos: sim.HookPosTransactionEnd, Item: tx})
	})

	It("should ignore other hook positions", func() {
		tracer.Func(sim.HookCtx{Pos: sim.HookPosTransactionStart, Item: &sim.Transaction{}})
		tracer.Func(sim.HookCtx{Pos: sim.HookPosCycle, Item: sim.CycleRecord{}})
	})
})
