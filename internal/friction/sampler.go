// Package friction draws per-block static friction thresholds.
package friction

import (
	"fmt"
	"time"

	"github.com/san-kum/quakesim/internal/config"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler scales a base friction by a random multiplier in [1, 2].
// It owns its generator; draws advance it and are never replayed.
type Sampler struct {
	dist     config.Distribution
	steps    int
	rnd      *rand.Rand
	binomial distuv.Binomial
}

// NewSampler seeds a generator with seed, or with the clock when seed is 0.
func NewSampler(dist config.Distribution, steps int, seed uint64) (*Sampler, error) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return NewSamplerFrom(dist, steps, rand.New(rand.NewSource(seed)))
}

// NewSamplerFrom uses rnd as the only source of randomness.
func NewSamplerFrom(dist config.Distribution, steps int, rnd *rand.Rand) (*Sampler, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("friction: steps must be positive, got %d", steps)
	}
	switch dist {
	case config.Zero, config.Uniform, config.Binomial:
	default:
		return nil, fmt.Errorf("friction: unknown distribution %q", dist)
	}
	return &Sampler{
		dist:  dist,
		steps: steps,
		rnd:   rnd,
		binomial: distuv.Binomial{
			N:   float64(steps),
			P:   0.5,
			Src: rnd,
		},
	}, nil
}

func (s *Sampler) Distribution() config.Distribution { return s.dist }

// Sample returns base times the next multiplier.
func (s *Sampler) Sample(base float64) float64 {
	return base * s.Multiplier()
}

// Multiplier is 1 + k/steps with k drawn from the configured distribution.
func (s *Sampler) Multiplier() float64 {
	switch s.dist {
	case config.Uniform:
		return 1 + float64(s.rnd.Intn(s.steps+1))/float64(s.steps)
	case config.Binomial:
		return 1 + s.binomial.Rand()/float64(s.steps)
	default:
		return 1
	}
}
