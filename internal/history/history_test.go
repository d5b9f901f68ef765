package history_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/quakesim/internal/history"
)

var _ = Describe("History", func() {
	var h *history.History

	BeforeEach(func() {
		h = history.New(8)
	})

	It("starts with a single zero sample", func() {
		Expect(h.Len()).To(Equal(1))
		Expect(h.Latest()).To(BeZero())
		Expect(h.Samples(10)).To(Equal([]float64{0}))
	})

	It("returns samples newest first", func() {
		h.Push(1)
		h.Push(2)
		h.Push(3)
		Expect(h.Samples(10)).To(Equal([]float64{3, 2, 1, 0}))
		Expect(h.Series(10)).To(Equal([]float64{0, 1, 2, 3}))
		Expect(h.Latest()).To(Equal(3.0))
	})

	It("discards everything older than the read width", func() {
		for i := 1; i <= 5; i++ {
			h.Push(float64(i))
		}
		Expect(h.Samples(3)).To(Equal([]float64{5, 4, 3}))
		Expect(h.Len()).To(Equal(3))

		// trimmed samples do not come back with a wider read
		Expect(h.Samples(10)).To(Equal([]float64{5, 4, 3}))
	})

	It("trims idempotently", func() {
		for i := 1; i <= 6; i++ {
			h.Push(float64(i))
		}
		h.Trim(4)
		once := h.Samples(4)
		h.Trim(4)
		Expect(h.Samples(4)).To(Equal(once))
		Expect(h.Len()).To(Equal(4))
	})

	It("never drops the newest sample", func() {
		h.Push(7)
		h.Trim(0)
		Expect(h.Samples(-3)).To(Equal([]float64{7}))
	})

	It("keeps appending after a trim", func() {
		for i := 1; i <= 4; i++ {
			h.Push(float64(i))
		}
		h.Trim(2)
		h.Push(9)
		Expect(h.Samples(10)).To(Equal([]float64{9, 4, 3}))
	})

	It("overwrites the oldest samples once full", func() {
		for i := 1; i <= 20; i++ {
			h.Push(float64(i))
		}
		Expect(h.Len()).To(Equal(h.Cap()))
		Expect(h.Samples(100)).To(Equal([]float64{20, 19, 18, 17, 16, 15, 14, 13}))
	})
})
