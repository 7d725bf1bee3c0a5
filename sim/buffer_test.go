package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Buffer", func() {
	var (
		mockCtrl *gomock.Controller
		buf      *Buffer[int]
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		buf = NewBuffer[int]("Buf", 2)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should be first in first out", func() {
		buf.Push(1)
		buf.Push(2)

		Expect(buf.CanPush()).To(BeFalse())
		Expect(buf.Size()).To(Equal(2))

		e, ok := buf.Peek()
		Expect(ok).To(BeTrue())
		Expect(e).To(Equal(1))

		e, _ = buf.Pop()
		Expect(e).To(Equal(1))
		e, _ = buf.Pop()
		Expect(e).To(Equal(2))

		_, ok = buf.Pop()
		Expect(ok).To(BeFalse())
	})

	It("should panic on overflow", func() {
		buf.Push(1)
		buf.Push(2)

		Expect(func() { buf.Push(3) }).To(Panic())
	})

	It("should invoke hooks", func() {
		hook := NewMockHook(mockCtrl)
		buf.AcceptHook(hook)

		hook.EXPECT().Func(HookCtx{Domain: buf, Pos: HookPosBufPush, Item: 7})
		hook.EXPECT().Func(HookCtx{Domain: buf, Pos: HookPosBufPop, Item: 7})

		buf.Push(7)
		buf.Pop()
	})

	It("should clear", func() {
		buf.Push(1)
		buf.Clear()

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.CanPush()).To(BeTrue())
	})
})
