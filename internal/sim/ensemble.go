package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/quakesim/internal/config"
	"github.com/san-kum/quakesim/internal/metrics"
)

// Run drives frames frames of the given length, sampling energy after each
// one. It stops early when ctx is done.
func (s *Simulator) Run(ctx context.Context, frames int, frame time.Duration) error {
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Advance(frame)
		s.SampleEnergy()
	}
	return nil
}

// Result is the outcome of one ensemble member.
type Result struct {
	Seed      uint64
	MaxX      float64
	Kinetic   []float64
	Potential []float64
	Metrics   map[string]float64
	Err       error
}

// Ensemble runs independent simulators that differ only in seed.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart uint64
	metrics   func() []metrics.Metric
}

// NewEnsemble prepares numRuns copies of cfg seeded seedStart, seedStart+1,
// and so on. newMetrics, when set, supplies fresh metrics for each run.
func NewEnsemble(cfg *config.Config, numRuns int, seedStart uint64, newMetrics func() []metrics.Metric) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, metrics: newMetrics}
}

// Run drives every member for frames frames, one goroutine per member.
// Series are returned oldest first, at most width samples long.
func (e *Ensemble) Run(ctx context.Context, frames int, frame time.Duration, width int) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: runs must be positive, got %d", config.ErrInvalidConfig, e.numRuns)
	}
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := e.cfg.Clone()
			cfgCopy.Seed = e.seedStart + uint64(idx)

			var opts []Option
			if e.metrics != nil {
				for _, m := range e.metrics() {
					opts = append(opts, WithMetric(m))
				}
			}

			s, err := New(cfgCopy, opts...)
			if err != nil {
				errs[idx] = err
				return
			}
			if err := s.Run(ctx, frames, frame); err != nil {
				errs[idx] = err
				return
			}
			results[idx] = s.result(width)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

func (s *Simulator) result(width int) *Result {
	r := &Result{
		Seed:    s.cfg.Seed,
		MaxX:    s.chain.MaxX(),
		Metrics: make(map[string]float64, len(s.metrics)),
		Err:     s.err,
	}
	if s.kinetic != nil {
		r.Kinetic = s.kinetic.Series(width)
	}
	if s.potential != nil {
		r.Potential = s.potential.Series(width)
	}
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	return r
}
