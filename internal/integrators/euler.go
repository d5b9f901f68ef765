package integrators

import (
	"math"

	"github.com/san-kum/quakesim/internal/chain"
	"github.com/san-kum/quakesim/internal/config"
)

// Euler adds each step's driver and friction force onto the stored
// acceleration instead of recomputing it, and ignores neighbor springs.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() config.Scheme { return config.Euler }

func (e *Euler) Step(c *chain.Chain, i int, dt float64) {
	p := c.Params()
	b := c.Block(i)

	drive := b.KP * (b.E - b.X)
	if b.V <= p.VEpsilon {
		b.A += math.Max(drive-chain.Sign(b.V)*b.Friction, 0)
	} else {
		b.A += drive - chain.Sign(b.V)*p.FrictionD
	}

	b.V += b.A * dt
	b.X += b.V * dt
	b.E += p.Ve * dt
}
