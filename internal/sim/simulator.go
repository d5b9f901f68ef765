// Package sim owns one block chain and drives it through wall-clock frames.
//
// A [Simulator] turns elapsed frame time into fixed-size substeps, applies
// the configured integrator to every block in index order, and records one
// kinetic and one potential energy sample per frame. Front-ends read the
// chain and histories between calls and issue reset, pause and selection
// commands. A Simulator is not safe for concurrent use.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/quakesim/internal/chain"
	"github.com/san-kum/quakesim/internal/config"
	"github.com/san-kum/quakesim/internal/friction"
	"github.com/san-kum/quakesim/internal/history"
	"github.com/san-kum/quakesim/internal/integrators"
	"github.com/san-kum/quakesim/internal/metrics"
)

const noSelection = -1

type Option func(*Simulator)

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSampler replaces the configured friction distribution.
func WithSampler(sampler chain.Sampler) Option {
	return func(s *Simulator) { s.sampler = sampler }
}

// WithMetric adds a metric observed on every energy sample.
func WithMetric(m metrics.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, m) }
}

type Simulator struct {
	cfg        *config.Config
	logger     *slog.Logger
	sampler    chain.Sampler
	integrator integrators.Integrator
	metrics    []metrics.Metric

	chain     *chain.Chain
	kinetic   *history.History
	potential *history.History
	maxRecord float64
	selected  int
	paused    bool
	substeps  uint64
	err       error
}

// New validates cfg and builds the first chain. The friction sampler is
// created once and keeps drawing across resets.
func New(cfg *config.Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	s := &Simulator{
		cfg:        cfg,
		logger:     slog.Default(),
		integrator: integ,
		maxRecord:  cfg.DisplayScale,
		selected:   noSelection,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "simulator"))

	if s.sampler == nil {
		fs, err := friction.NewSampler(cfg.Distribution, cfg.RandomSteps, cfg.Seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		s.sampler = fs
	}

	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset rebuilds the chain with fresh friction draws, clears both
// histories and the selection. The recorded maximum is kept.
func (s *Simulator) Reset() error {
	c, err := chain.Build(chain.ParamsFrom(s.cfg), s.sampler)
	if err != nil {
		s.chain = nil
		return fmt.Errorf("reset: %w", err)
	}
	s.chain = c
	s.kinetic, s.potential = nil, nil
	if s.cfg.Plot.Kinetic() {
		s.kinetic = history.New(s.cfg.HistoryCapacity)
	}
	if s.cfg.Plot.Potential() {
		s.potential = history.New(s.cfg.HistoryCapacity)
	}
	s.selected = noSelection
	s.substeps = 0
	s.err = nil
	for _, m := range s.metrics {
		m.Reset()
	}

	resetsTotal.Inc()
	s.logger.Debug("chain built",
		slog.Int("blocks", c.Len()),
		slog.String("integrator", string(s.integrator.Name())),
		slog.String("distribution", string(s.cfg.Distribution)),
	)
	return nil
}

// Advance runs floor(elapsed/dt) substeps, at most MaxSubsteps when that
// is positive. It does nothing while paused.
func (s *Simulator) Advance(elapsed time.Duration) {
	if s.paused || s.chain == nil || elapsed <= 0 {
		return
	}

	n := uint64(math.Floor(elapsed.Seconds() / s.cfg.Dt))
	if limit := uint64(s.cfg.MaxSubsteps); limit > 0 && n > limit {
		framesCappedTotal.Inc()
		s.logger.Warn("frame capped",
			slog.Uint64("substeps", n),
			slog.Uint64("max_substeps", limit),
			slog.Duration("elapsed", elapsed),
		)
		n = limit
	}
	for k := uint64(0); k < n; k++ {
		s.substep()
	}
	substepsTotal.Add(float64(n))
	maxDisplacement.Set(s.chain.MaxX())
	s.checkFinite()
}

// Step runs exactly one substep, paused or not.
func (s *Simulator) Step() {
	if s.chain == nil {
		return
	}
	s.substep()
	substepsTotal.Inc()
	maxDisplacement.Set(s.chain.MaxX())
	s.checkFinite()
}

func (s *Simulator) substep() {
	for i := 0; i < s.chain.Len(); i++ {
		s.chain.TrackMax(i)
		s.integrator.Step(s.chain, i, s.cfg.Dt)
	}
	s.substeps++
}

func (s *Simulator) checkFinite() {
	if s.err != nil || s.chain.Finite() {
		return
	}
	s.err = &StateError{Substep: s.substeps, MaxX: s.chain.MaxX(), Wrapped: ErrNonFinite}
	s.logger.Error("chain state diverged", slog.Uint64("substep", s.substeps))
}

// SampleEnergy records one kinetic and one potential sample for the
// tracked series. It does nothing while paused.
func (s *Simulator) SampleEnergy() {
	if s.paused || s.chain == nil {
		return
	}
	if s.kinetic != nil {
		s.record(s.kinetic, metrics.Kinetic(s.chain, s.cfg.Integrator == config.Leapfrog))
	}
	if s.potential != nil {
		s.record(s.potential, metrics.Potential(s.chain))
	}
	for _, m := range s.metrics {
		m.Observe(s.chain)
	}
}

func (s *Simulator) record(h *history.History, v float64) {
	h.Push(v)
	if v > s.maxRecord {
		s.maxRecord = v
	}
}

func (s *Simulator) SetPaused(paused bool) { s.paused = paused }

func (s *Simulator) Paused() bool { return s.paused }

func (s *Simulator) TogglePause() bool {
	s.paused = !s.paused
	return s.paused
}

func (s *Simulator) Chain() *chain.Chain { return s.chain }

func (s *Simulator) Config() *config.Config { return s.cfg.Clone() }

// Kinetic returns the kinetic energy history, or nil when it is not tracked.
func (s *Simulator) Kinetic() *history.History { return s.kinetic }

// Potential returns the potential energy history, or nil when it is not tracked.
func (s *Simulator) Potential() *history.History { return s.potential }

// MaxRecorded is the largest energy sample seen since construction, never
// below the configured display scale.
func (s *Simulator) MaxRecorded() float64 { return s.maxRecord }

// Substeps counts substeps since the last reset.
func (s *Simulator) Substeps() uint64 { return s.substeps }

func (s *Simulator) Metrics() []metrics.Metric { return s.metrics }

// Err reports the first non-finite state seen since the last reset.
func (s *Simulator) Err() error { return s.err }

// SelectBlockAt selects the block whose body contains x. A miss clears the
// selection.
func (s *Simulator) SelectBlockAt(x float64) (chain.Block, bool) {
	i, ok := s.chain.BlockAt(x)
	if !ok {
		s.selected = noSelection
		return chain.Block{}, false
	}
	s.selected = i
	return *s.chain.Block(i), true
}

// Selected returns a copy of the selected block.
func (s *Simulator) Selected() (chain.Block, bool) {
	if s.selected == noSelection || s.selected >= s.chain.Len() {
		return chain.Block{}, false
	}
	return *s.chain.Block(s.selected), true
}

func (s *Simulator) ClearSelection() { s.selected = noSelection }
