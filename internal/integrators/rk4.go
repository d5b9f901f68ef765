package integrators

import (
	"github.com/san-kum/quakesim/internal/chain"
	"github.com/san-kum/quakesim/internal/config"
)

// RK4 integrates the velocity with four force evaluations and then moves
// the block with the new velocity. Trial states live in a scratch block.
type RK4 struct {
	scratch chain.Block
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() config.Scheme { return config.RungeKutta }

func (r *RK4) Step(c *chain.Chain, i int, dt float64) {
	p := c.Params()
	b := c.Block(i)
	half := dt * 0.5

	b.A = c.Acceleration(b)
	k1 := b.A

	r.scratch = *b
	v1 := b.V + k1*half
	r.scratch.X = b.X + v1*half
	r.scratch.V = v1
	r.scratch.E = b.E + p.Ve*half
	k2 := c.Acceleration(&r.scratch)

	v2 := b.V + k2*half
	r.scratch.X = b.X + v2*half
	r.scratch.V = v2
	k3 := c.Acceleration(&r.scratch)

	v3 := b.V + k3*dt
	r.scratch.X = b.X + v3*dt
	r.scratch.V = v3
	r.scratch.E = b.E + p.Ve*dt
	k4 := c.Acceleration(&r.scratch)

	b.V += (k1 + 2*k2 + 2*k3 + k4) * dt / 6
	b.X += b.V * dt
	b.E += p.Ve * dt
}
