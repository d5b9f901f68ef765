package chain_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/quakesim/internal/chain"
	"github.com/san-kum/quakesim/internal/config"
	"github.com/san-kum/quakesim/internal/friction"
)

type fixedSampler float64

func (f fixedSampler) Sample(base float64) float64 { return base * float64(f) }

func defaultParams() chain.Params {
	return chain.ParamsFrom(config.DefaultConfig())
}

var _ = Describe("Build", func() {
	It("lays out blocks with a 3-width pitch and anchors 2 widths ahead", func() {
		p := defaultParams()
		c, err := chain.Build(p, fixedSampler(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Len()).To(Equal(p.Blocks))

		w := p.BlockWidth
		for i, b := range c.Blocks() {
			Expect(b.Index).To(Equal(i + 1))
			Expect(b.X).To(Equal(3 * w * float64(i)))
			Expect(b.E).To(Equal(w * float64(3*i+2)))
			Expect(b.V).To(BeZero())
			Expect(b.VPrev).To(BeZero())
			Expect(b.A).To(BeZero())
			Expect(b.KP).To(Equal(p.Kp))
			Expect(b.KC).To(Equal(p.Kc))
			Expect(b.Friction).To(Equal(p.FrictionD))
		}
		Expect(c.MaxX()).To(Equal(c.Blocks()[p.Blocks-1].X))
	})

	It("forms a single open path", func() {
		for _, n := range []int{1, 2, 7, 50} {
			p := defaultParams()
			p.Blocks = n
			c, err := chain.Build(p, fixedSampler(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(c.CheckLinks()).To(Succeed())

			head := c.Block(0)
			Expect(c.Prev(head)).To(BeNil())
			Expect(c.Next(c.Block(n - 1))).To(BeNil())

			count := 0
			for b := head; b != nil; b = c.Next(b) {
				count++
				if next := c.Next(b); next != nil {
					Expect(c.Prev(next)).To(BeIdenticalTo(b))
				}
			}
			Expect(count).To(Equal(n))
		}
	})

	It("draws friction per block from the sampler", func() {
		s, err := friction.NewSampler(config.Uniform, 20, 11)
		Expect(err).NotTo(HaveOccurred())
		p := defaultParams()
		p.Blocks = 200
		c, err := chain.Build(p, s)
		Expect(err).NotTo(HaveOccurred())

		distinct := map[float64]bool{}
		for _, b := range c.Blocks() {
			Expect(b.Friction).To(BeNumerically(">=", p.FrictionD))
			Expect(b.Friction).To(BeNumerically("<=", 2*p.FrictionD))
			distinct[b.Friction] = true
		}
		Expect(len(distinct)).To(BeNumerically(">", 1))
	})

	It("rejects empty chains without building anything", func() {
		p := defaultParams()
		p.Blocks = 0
		c, err := chain.Build(p, fixedSampler(1))
		Expect(err).To(MatchError(chain.ErrInvalidParams))
		Expect(c).To(BeNil())

		p = defaultParams()
		p.BlockWidth = 0
		_, err = chain.Build(p, fixedSampler(1))
		Expect(err).To(MatchError(chain.ErrInvalidParams))
	})
})

var _ = Describe("New", func() {
	It("re-indexes and links explicit blocks", func() {
		c, err := chain.New(defaultParams(), []chain.Block{
			{Index: 7, X: 0, E: 0, KP: 1, KC: 0.4, Friction: 15},
			{Index: 3, X: 3, E: 3, KP: 1, KC: 0.4, Friction: 15},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.CheckLinks()).To(Succeed())
		Expect(c.Block(0).Index).To(Equal(1))
		Expect(c.Block(1).Index).To(Equal(2))
		Expect(c.MaxX()).To(Equal(3.0))
		Expect(c.Params().Blocks).To(Equal(2))
	})

	It("rejects an empty slice", func() {
		_, err := chain.New(defaultParams(), nil)
		Expect(err).To(MatchError(chain.ErrInvalidParams))
	})
})

var _ = Describe("BlockAt", func() {
	var c *chain.Chain

	BeforeEach(func() {
		var err error
		c, err = chain.Build(defaultParams(), fixedSampler(1))
		Expect(err).NotTo(HaveOccurred())
	})

	It("finds the block whose body contains the coordinate", func() {
		i, ok := c.BlockAt(28.5)
		Expect(ok).To(BeTrue())
		Expect(c.Block(i).Index).To(Equal(4))

		i, ok = c.BlockAt(0)
		Expect(ok).To(BeTrue())
		Expect(c.Block(i).Index).To(Equal(1))

		i, ok = c.BlockAt(3)
		Expect(ok).To(BeTrue())
		Expect(c.Block(i).Index).To(Equal(1))
	})

	It("returns nothing in the gaps or outside the chain", func() {
		for _, x := range []float64{-0.1, 4.5, 7.9, 1000} {
			_, ok := c.BlockAt(x)
			Expect(ok).To(BeFalse(), "x=%v", x)
		}
	})

	It("returns nothing on an absent chain", func() {
		var empty *chain.Chain
		_, ok := empty.BlockAt(1)
		Expect(ok).To(BeFalse())
		Expect(empty.Len()).To(BeZero())
	})
})

var _ = Describe("Acceleration", func() {
	params := func() chain.Params {
		p := defaultParams()
		p.Blocks = 3
		return p
	}

	It("holds a resting block until the elastic force beats static friction", func() {
		c, err := chain.New(params(), []chain.Block{
			{X: 0, E: 8, KP: 1, KC: 0.4, Friction: 10},
			{X: 6, E: 8, KP: 1, KC: 0.4, Friction: 10},
		})
		Expect(err).NotTo(HaveOccurred())

		// head: neighbor 0.4*(6-0-3)=1.2, driver 8, friction 10
		Expect(c.Acceleration(c.Block(0))).To(BeZero())

		c.Block(0).E = 12
		Expect(c.Acceleration(c.Block(0))).To(BeNumerically("~", 1.2+12-10, 1e-12))
	})

	It("prefers the right neighbor and falls back to the left one", func() {
		c, err := chain.New(params(), []chain.Block{
			{X: 0, E: 0, KP: 1, KC: 0.5, Friction: 1},
			{X: 5, E: 5, KP: 1, KC: 2, Friction: 1, V: 1},
			{X: 9, E: 9, KP: 1, KC: 3, Friction: 1, V: 1},
		})
		Expect(err).NotTo(HaveOccurred())
		fd := c.Params().FrictionD

		// middle: right spring only, 2*(9-5-3)
		Expect(c.Acceleration(c.Block(1))).To(BeNumerically("~", 2*1-fd, 1e-12))
		// tail: left neighbor's spring, 2*(5-9-3)
		Expect(c.Acceleration(c.Block(2))).To(BeNumerically("~", 2*-7.0-fd, 1e-12))
	})

	It("applies dynamic friction against the velocity while sliding", func() {
		c, err := chain.New(params(), []chain.Block{
			{X: 0, E: 1, KP: 1, KC: 0, Friction: 50, V: -0.5},
		})
		Expect(err).NotTo(HaveOccurred())
		fd := c.Params().FrictionD
		Expect(c.Acceleration(c.Block(0))).To(BeNumerically("~", 1+fd, 1e-12))

		c.Block(0).V = 0.5
		Expect(c.Acceleration(c.Block(0))).To(BeNumerically("~", 1-fd, 1e-12))
	})

	It("reads neighbors through a scratch copy without touching the chain", func() {
		c, err := chain.Build(params(), fixedSampler(1))
		Expect(err).NotTo(HaveOccurred())
		before := append([]chain.Block(nil), c.Blocks()...)

		tmp := *c.Block(1)
		tmp.X += 1
		tmp.V = 5
		a := c.Acceleration(&tmp)
		Expect(math.IsNaN(a)).To(BeFalse())
		Expect(c.Blocks()).To(Equal(before))
	})
})

var _ = Describe("Sign", func() {
	It("treats zero as positive", func() {
		Expect(chain.Sign(0)).To(Equal(1.0))
		Expect(chain.Sign(3)).To(Equal(1.0))
		Expect(chain.Sign(-1e-300)).To(Equal(-1.0))
	})
})
