package integrators

import (
	"math"

	"github.com/san-kum/quakesim/internal/chain"
	"github.com/san-kum/quakesim/internal/config"
)

// Leapfrog recomputes the full two-sided force with dynamic friction
// against the previous velocity, then snaps the block to rest when the
// velocity crosses zero (or is negligible) and the net force is below the
// block's static friction.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() config.Scheme { return config.Leapfrog }

func (l *Leapfrog) Step(c *chain.Chain, i int, dt float64) {
	p := c.Params()
	b := c.Block(i)

	b.A = b.KP*(b.E-b.X) - chain.Sign(b.V)*p.FrictionD
	if next := c.Next(b); next != nil {
		b.A += b.KC * (next.X - b.X - p.BlockWidth)
	}
	if prev := c.Prev(b); prev != nil {
		b.A -= prev.KC * (b.X - prev.X - p.BlockWidth)
	}

	b.VPrev = b.V
	b.V = b.VPrev + dt*b.A
	if b.V*b.VPrev < 0 || math.Abs(b.V) < p.VEpsilon {
		if math.Abs(b.A) < b.Friction {
			b.A, b.V = 0, 0
		}
	}

	b.X += dt * b.V
	b.E += p.Ve * dt
}
