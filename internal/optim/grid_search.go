// Package optim sweeps chain parameters over a grid.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/san-kum/quakesim/internal/config"
	"github.com/san-kum/quakesim/internal/metrics"
	"github.com/san-kum/quakesim/internal/sim"
)

// ErrNoFiniteScore means every grid point scored NaN or Inf.
var ErrNoFiniteScore = errors.New("optim: no grid point scored finite")

// Evaluate scores one grid point. Lower is better.
type Evaluate func(ctx context.Context, params map[string]float64) (float64, error)

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search evaluates every combination in declaration order and returns the
// lowest scoring parameters along with all points. NaN and Inf scores are
// recorded but never chosen.
func (g *GridSearch) Search(ctx context.Context, eval Evaluate) (map[string]float64, float64, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var points []Point

	err := g.searchRecursive(ctx, 0, make(map[string]float64), eval, func(p Point) {
		points = append(points, p)
		if !math.IsInf(p.Value, 0) && p.Value < best {
			best = p.Value
			bestParams = p.Params
		}
	})
	if err != nil {
		return nil, 0, points, err
	}
	if bestParams == nil {
		return nil, 0, points, ErrNoFiniteScore
	}
	return bestParams, best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval Evaluate,
	record func(Point),
) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, err := eval(ctx, current)
		if err != nil {
			return fmt.Errorf("optim: evaluate %v: %w", current, err)
		}
		record(Point{Params: current, Value: val})
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval, record); err != nil {
			return err
		}
	}
	return nil
}

var setters = map[string]func(*config.Config, float64){
	"k_p":        func(c *config.Config, v float64) { c.Kp = v },
	"k_c":        func(c *config.Config, v float64) { c.Kc = v },
	"friction_d": func(c *config.Config, v float64) { c.FrictionD = v },
	"v_e":        func(c *config.Config, v float64) { c.Ve = v },
	"v_epsilon":  func(c *config.Config, v float64) { c.VEpsilon = v },
	"dt":         func(c *config.Config, v float64) { c.Dt = v },
	"blocks":     func(c *config.Config, v float64) { c.Blocks = int(v) },
}

// Params lists the sweepable configuration keys.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply writes params into a copy of base.
func Apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	for name, v := range params {
		set, ok := setters[name]
		if !ok {
			return nil, fmt.Errorf("optim: unknown parameter %q", name)
		}
		set(cfg, v)
	}
	return cfg, cfg.Validate()
}

// Objectives are the scores SimEvaluator can return.
var Objectives = []string{"activity", "mean_speed", "max_x"}

// SimEvaluator runs frames frames of base with each grid point applied and
// scores the run by objective. With maximize set the score is negated so
// that Search still minimizes.
func SimEvaluator(base *config.Config, frames int, frame time.Duration, objective string, maximize bool) (Evaluate, error) {
	switch objective {
	case "activity", "mean_speed", "max_x":
	default:
		return nil, fmt.Errorf("optim: unknown objective %q", objective)
	}
	sign := 1.0
	if maximize {
		sign = -1
	}

	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg, err := Apply(base, params)
		if err != nil {
			return 0, err
		}
		activity := metrics.NewActivity(cfg.VEpsilon)
		speed := metrics.NewMeanSpeed()
		s, err := sim.New(cfg, sim.WithMetric(activity), sim.WithMetric(speed))
		if err != nil {
			return 0, err
		}
		if err := s.Run(ctx, frames, frame); err != nil {
			return 0, err
		}
		// diverged points never win
		if s.Err() != nil {
			return math.Inf(1), nil
		}

		switch objective {
		case "activity":
			return sign * activity.Value(), nil
		case "mean_speed":
			return sign * speed.Value(), nil
		}
		return sign * s.Chain().MaxX(), nil
	}, nil
}
