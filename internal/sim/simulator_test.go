package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/quakesim/internal/config"
	"github.com/san-kum/quakesim/internal/metrics"
)

type fixedSampler float64

func (f fixedSampler) Sample(base float64) float64 { return float64(f) * base }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Blocks = 5
	cfg.Distribution = config.Zero
	cfg.Seed = 1
	return cfg
}

func mustNew(t *testing.T, cfg *config.Config, opts ...Option) *Simulator {
	t.Helper()
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"no blocks", func(c *config.Config) { c.Blocks = 0 }},
		{"zero dt", func(c *config.Config) { c.Dt = 0 }},
		{"NaN dt", func(c *config.Config) { c.Dt = math.NaN() }},
		{"infinite dt", func(c *config.Config) { c.Dt = math.Inf(1) }},
		{"NaN block width", func(c *config.Config) { c.BlockWidth = math.NaN() }},
		{"infinite v_epsilon", func(c *config.Config) { c.VEpsilon = math.Inf(1) }},
		{"unknown scheme", func(c *config.Config) { c.Integrator = "verlet" }},
		{"unknown distribution", func(c *config.Config) { c.Distribution = "gauss" }},
		{"negative cap", func(c *config.Config) { c.MaxSubsteps = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(cfg)
			s, err := New(cfg)
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if s != nil {
				t.Error("expected no simulator")
			}
		})
	}
}

func TestNewBuildsChain(t *testing.T) {
	s := mustNew(t, testConfig())

	c := s.Chain()
	if c.Len() != 5 {
		t.Fatalf("expected 5 blocks, got %d", c.Len())
	}
	if err := c.CheckLinks(); err != nil {
		t.Errorf("CheckLinks: %v", err)
	}
	for i, b := range c.Blocks() {
		if b.Index != i+1 {
			t.Errorf("block %d has index %d", i, b.Index)
		}
		if b.Friction != config.DefaultFrictionD {
			t.Errorf("block %d friction %v, want %v", b.Index, b.Friction, config.DefaultFrictionD)
		}
	}
	if s.MaxRecorded() != config.DefaultDisplayScale {
		t.Errorf("MaxRecorded = %v, want %v", s.MaxRecorded(), config.DefaultDisplayScale)
	}
}

func TestSubstepCount(t *testing.T) {
	cfg := testConfig()
	cfg.Dt = 0.5
	cfg.Ve = 0
	s := mustNew(t, cfg)

	s.Advance(2 * time.Second)
	if s.Substeps() != 4 {
		t.Errorf("expected 4 substeps, got %d", s.Substeps())
	}

	s.Advance(1900 * time.Millisecond)
	if s.Substeps() != 7 {
		t.Errorf("expected 7 substeps, got %d", s.Substeps())
	}

	s.Advance(400 * time.Millisecond)
	if s.Substeps() != 7 {
		t.Errorf("short frame ran substeps: %d", s.Substeps())
	}
}

func TestSubstepCap(t *testing.T) {
	cfg := testConfig()
	cfg.Dt = 0.01
	cfg.MaxSubsteps = 10
	s := mustNew(t, cfg)

	capped := testutil.ToFloat64(framesCappedTotal)
	total := testutil.ToFloat64(substepsTotal)

	s.Advance(time.Second)

	if s.Substeps() != 10 {
		t.Errorf("expected 10 substeps, got %d", s.Substeps())
	}
	if got := testutil.ToFloat64(framesCappedTotal) - capped; got != 1 {
		t.Errorf("capped frames delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(substepsTotal) - total; got != 10 {
		t.Errorf("substeps delta = %v, want 10", got)
	}

	cfg.MaxSubsteps = 0
	s = mustNew(t, cfg)
	s.Advance(time.Second)
	if s.Substeps() != 100 {
		t.Errorf("uncapped: expected 100 substeps, got %d", s.Substeps())
	}
}

func TestPauseGatesAdvance(t *testing.T) {
	cfg := testConfig()
	cfg.Dt = 1e-3
	s := mustNew(t, cfg)
	before := append([]float64(nil), positions(s)...)

	s.SetPaused(true)
	s.Advance(time.Second)
	s.SampleEnergy()

	if s.Substeps() != 0 {
		t.Errorf("paused simulator ran %d substeps", s.Substeps())
	}
	for i, x := range positions(s) {
		if x != before[i] {
			t.Errorf("block %d moved while paused", i+1)
		}
	}
	if s.Kinetic().Len() != 1 || s.Potential().Len() != 1 {
		t.Error("paused simulator recorded energy")
	}

	if s.TogglePause() {
		t.Error("TogglePause should resume")
	}
	if s.Paused() {
		t.Error("expected running simulator")
	}

	// single-stepping ignores the pause gate
	s.SetPaused(true)
	s.Step()
	if s.Substeps() != 1 {
		t.Errorf("Step ran %d substeps, want 1", s.Substeps())
	}
}

func TestDeterminism(t *testing.T) {
	cfg := testConfig()
	cfg.Kp = 3
	cfg.Dt = 1e-4

	for _, scheme := range []config.Scheme{config.Euler, config.RungeKutta, config.Leapfrog} {
		cfg.Integrator = scheme
		a := mustNew(t, cfg)
		b := mustNew(t, cfg)

		for i := 0; i < 50; i++ {
			a.Advance(10 * time.Millisecond)
			a.SampleEnergy()
			b.Advance(10 * time.Millisecond)
			b.SampleEnergy()
		}

		ba, bb := a.Chain().Blocks(), b.Chain().Blocks()
		for i := range ba {
			if ba[i] != bb[i] {
				t.Errorf("%s: block %d differs: %+v vs %+v", scheme, i+1, ba[i], bb[i])
			}
		}
		if a.Chain().MaxX() != b.Chain().MaxX() {
			t.Errorf("%s: MaxX differs", scheme)
		}
	}
}

func TestSeededFrictionReproducible(t *testing.T) {
	cfg := testConfig()
	cfg.Distribution = config.Binomial
	cfg.Seed = 42

	a := mustNew(t, cfg)
	b := mustNew(t, cfg)
	for i := range a.Chain().Blocks() {
		fa, fb := a.Chain().Block(i).Friction, b.Chain().Block(i).Friction
		if fa != fb {
			t.Errorf("block %d friction %v vs %v", i+1, fa, fb)
		}
	}
}

func TestMaxXMonotonic(t *testing.T) {
	cfg := testConfig()
	cfg.Kp = 5
	cfg.Dt = 1e-4
	s := mustNew(t, cfg)

	prev := s.Chain().MaxX()
	for i := 0; i < 200; i++ {
		s.Advance(10 * time.Millisecond)
		cur := s.Chain().MaxX()
		if cur < prev {
			t.Fatalf("frame %d: MaxX decreased from %v to %v", i, prev, cur)
		}
		prev = cur
	}
	if got := testutil.ToFloat64(maxDisplacement); got != prev {
		t.Errorf("max displacement gauge = %v, want %v", got, prev)
	}
}

func TestSampleEnergy(t *testing.T) {
	cfg := testConfig()
	cfg.Kp = 5
	cfg.Dt = 1e-4
	s := mustNew(t, cfg)

	for i := 0; i < 10; i++ {
		s.Advance(10 * time.Millisecond)
		s.SampleEnergy()
	}

	if s.Kinetic().Len() != 11 || s.Potential().Len() != 11 {
		t.Fatalf("expected 11 samples, got %d and %d", s.Kinetic().Len(), s.Potential().Len())
	}
	if got, want := s.Kinetic().Latest(), metrics.Kinetic(s.Chain(), true); got != want {
		t.Errorf("leapfrog kinetic = %v, want %v", got, want)
	}
	if got, want := s.Potential().Latest(), metrics.Potential(s.Chain()); got != want {
		t.Errorf("potential = %v, want %v", got, want)
	}
	for _, v := range s.Potential().Samples(100) {
		if v < 0 {
			t.Errorf("negative potential sample %v", v)
		}
	}
}

func TestTrackedSeries(t *testing.T) {
	cfg := testConfig()
	cfg.Integrator = config.RungeKutta
	cfg.Plot = config.PlotKinetic
	s := mustNew(t, cfg)

	if s.Potential() != nil {
		t.Error("potential should not be tracked")
	}
	s.Advance(time.Millisecond)
	s.SampleEnergy()
	if s.Kinetic().Latest() < 0 {
		t.Errorf("negative kinetic sample %v", s.Kinetic().Latest())
	}

	cfg.Plot = config.PlotNone
	s = mustNew(t, cfg)
	s.SampleEnergy()
	if s.Kinetic() != nil || s.Potential() != nil {
		t.Error("expected no histories")
	}
}

func TestMaxRecordedSurvivesReset(t *testing.T) {
	cfg := testConfig()
	cfg.DisplayScale = 1
	cfg.Kp = 4
	s := mustNew(t, cfg)

	s.SampleEnergy()
	peak := s.MaxRecorded()
	if peak <= 1 {
		t.Fatalf("expected potential above display scale, got %v", peak)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.MaxRecorded() != peak {
		t.Errorf("MaxRecorded = %v after reset, want %v", s.MaxRecorded(), peak)
	}
}

func TestReset(t *testing.T) {
	cfg := testConfig()
	cfg.Kp = 5
	cfg.Dt = 1e-4
	s := mustNew(t, cfg)
	resets := testutil.ToFloat64(resetsTotal)

	if _, ok := s.SelectBlockAt(0.5); !ok {
		t.Fatal("expected a selection")
	}
	for i := 0; i < 20; i++ {
		s.Advance(10 * time.Millisecond)
		s.SampleEnergy()
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if _, ok := s.Selected(); ok {
		t.Error("selection survived reset")
	}
	if s.Kinetic().Len() != 1 || s.Kinetic().Latest() != 0 {
		t.Error("kinetic history not cleared")
	}
	if s.Potential().Len() != 1 {
		t.Error("potential history not cleared")
	}
	if s.Substeps() != 0 {
		t.Errorf("substeps = %d after reset", s.Substeps())
	}
	for i, b := range s.Chain().Blocks() {
		if want := 3 * cfg.BlockWidth * float64(i); b.X != want || b.V != 0 {
			t.Errorf("block %d not rebuilt: x=%v v=%v", b.Index, b.X, b.V)
		}
	}
	if got := testutil.ToFloat64(resetsTotal) - resets; got != 1 {
		t.Errorf("resets delta = %v, want 1", got)
	}
}

func TestSelectBlockAt(t *testing.T) {
	s := mustNew(t, testConfig(), WithSampler(fixedSampler(1.5)))

	b, ok := s.SelectBlockAt(9.5)
	if !ok || b.Index != 2 {
		t.Fatalf("SelectBlockAt(9.5) = %d, %v; want block 2", b.Index, ok)
	}
	if b.Friction != 15 {
		t.Errorf("friction = %v, want 15", b.Friction)
	}
	if sel, ok := s.Selected(); !ok || sel.Index != 2 {
		t.Errorf("Selected() = %d, %v", sel.Index, ok)
	}

	if _, ok := s.SelectBlockAt(5); ok {
		t.Error("expected a miss between blocks")
	}
	if _, ok := s.Selected(); ok {
		t.Error("a miss should clear the selection")
	}

	s.SelectBlockAt(0)
	s.ClearSelection()
	if _, ok := s.Selected(); ok {
		t.Error("ClearSelection kept the selection")
	}
}

func TestSelectionWithoutChain(t *testing.T) {
	s := &Simulator{selected: noSelection}

	if _, ok := s.SelectBlockAt(1); ok {
		t.Error("expected no selection")
	}
	if _, ok := s.Selected(); ok {
		t.Error("expected no selection")
	}
	s.Advance(time.Second)
	s.SampleEnergy()
	s.Step()
}

func TestNonFiniteDiagnostic(t *testing.T) {
	s := mustNew(t, testConfig())
	if s.Err() != nil {
		t.Fatalf("unexpected error %v", s.Err())
	}

	s.Chain().Block(2).X = math.NaN()
	s.Step()

	var stateErr *StateError
	if !errors.As(s.Err(), &stateErr) {
		t.Fatalf("expected StateError, got %v", s.Err())
	}
	if !errors.Is(s.Err(), ErrNonFinite) {
		t.Error("expected ErrNonFinite")
	}
	if stateErr.Substep != 1 {
		t.Errorf("substep = %d, want 1", stateErr.Substep)
	}

	s.Step()
	if s.Err() != stateErr {
		t.Error("first error should be kept")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := mustNew(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx, 10, time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if s.Kinetic().Len() != 1 {
		t.Error("canceled run sampled energy")
	}
}

func TestEnsemble(t *testing.T) {
	cfg := testConfig()
	cfg.Distribution = config.Uniform
	cfg.Dt = 1e-4

	e := NewEnsemble(cfg, 3, 7, func() []metrics.Metric {
		return []metrics.Metric{metrics.NewActivity(cfg.VEpsilon)}
	})
	results, err := e.Run(context.Background(), 5, 10*time.Millisecond, 100)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Seed != uint64(7+i) {
			t.Errorf("run %d seed = %d", i, r.Seed)
		}
		if len(r.Kinetic) != 6 || len(r.Potential) != 6 {
			t.Errorf("run %d: series lengths %d, %d", i, len(r.Kinetic), len(r.Potential))
		}
		if _, ok := r.Metrics["activity"]; !ok {
			t.Errorf("run %d: missing activity metric", i)
		}
	}

	if _, err := NewEnsemble(cfg, 0, 1, nil).Run(context.Background(), 1, time.Millisecond, 10); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func positions(s *Simulator) []float64 {
	var xs []float64
	for _, b := range s.Chain().Blocks() {
		xs = append(xs, b.X)
	}
	return xs
}
