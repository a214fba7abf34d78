package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("msg", func() {
	var (
		mockController *gomock.Controller
	)

	BeforeEach(func() {
		mockController = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockController.Finish()
	})

	It("should return clone message", func() {
		originalReq := NewSampleMsg()
		originalReq.ID = GetIDGenerator().Generate()
		originalReq.Src = "Comp1.Port1"
		originalReq.Dst = "Comp2.Port1"

		rsp := GeneralRspBuilder{}.
			WithSrc(originalReq.Dst).
			WithDst(originalReq.Src).
			WithOriginalReq(originalReq).
			Build()

		cloneMsg := rsp.Clone()

		Expect(cloneMsg.Meta().ID).NotTo(Equal(rsp.Meta().ID))
		Expect(cloneMsg.Meta().Src).To(BeIdenticalTo(rsp.Meta().Src))
		Expect(cloneMsg.Meta().Dst).To(BeIdenticalTo(rsp.Meta().Dst))
		Expect(cloneMsg.(Rsp).GetRspTo()).To(Equal(originalReq.ID))
	})
})
