// Package integrators advances one block of a chain by one fixed timestep.
//
// Three schemes are available and one is chosen per run:
//
//   - [Euler]: additive explicit Euler, kept for comparison
//   - [RK4]: fourth-order Runge-Kutta on the velocity
//   - [Leapfrog]: semi-implicit update with an explicit stick condition
//
// Every scheme also moves the block's driver anchor at the chain's driver
// velocity. Steps mutate the block in place and read neighbors as they are
// at call time, so callers must visit blocks in increasing index order.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/quakesim/internal/chain"
	"github.com/san-kum/quakesim/internal/config"
)

type Integrator interface {
	Name() config.Scheme
	Step(c *chain.Chain, i int, dt float64)
}

var registry = map[config.Scheme]func() Integrator{
	config.Euler:      func() Integrator { return NewEuler() },
	config.RungeKutta: func() Integrator { return NewRK4() },
	config.Leapfrog:   func() Integrator { return NewLeapfrog() },
}

func New(scheme config.Scheme) (Integrator, error) {
	fn, ok := registry[scheme]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", scheme)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
