package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/san-kum/quakesim/internal/sim"
)

// PhasePoint is a block's driver stretch E-X against its velocity.
type PhasePoint struct {
	Stretch  float64
	Velocity float64
}

// PhasePortrait is the trajectory of one block, one point per frame.
type PhasePortrait struct {
	Block  int
	Points []PhasePoint
}

// TracePhase advances s frame by frame and records block i (0-based)
// after each frame. Energy is sampled as in a normal run.
func TracePhase(ctx context.Context, s *sim.Simulator, i, frames int, frame time.Duration) (*PhasePortrait, error) {
	c := s.Chain()
	if i < 0 || i >= c.Len() {
		return nil, fmt.Errorf("analysis: no block at position %d", i)
	}

	portrait := &PhasePortrait{
		Block:  c.Block(i).Index,
		Points: make([]PhasePoint, 0, frames),
	}
	for f := 0; f < frames; f++ {
		if err := s.Run(ctx, 1, frame); err != nil {
			return portrait, err
		}
		b := s.Chain().Block(i)
		portrait.Points = append(portrait.Points, PhasePoint{
			Stretch:  b.E - b.X,
			Velocity: b.V,
		})
	}
	return portrait, nil
}

// ASCII plots stretch on the horizontal axis and velocity on the vertical.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || width < 2 || height < 2 {
		return ""
	}

	// a diverged run ends in NaN or Inf; those points are not drawn
	var pts []PhasePoint
	for _, pt := range p.Points {
		if finite(pt.Stretch) && finite(pt.Velocity) {
			pts = append(pts, pt)
		}
	}
	if len(pts) == 0 {
		return ""
	}

	minX, maxX := pts[0].Stretch, pts[0].Stretch
	minY, maxY := pts[0].Velocity, pts[0].Velocity
	for _, pt := range pts {
		minX, maxX = min(minX, pt.Stretch), max(maxX, pt.Stretch)
		minY, maxY = min(minY, pt.Velocity), max(maxY, pt.Velocity)
	}
	if maxX == minX {
		minX, maxX = minX-1, maxX+1
	}
	if maxY == minY {
		minY, maxY = minY-1, maxY+1
	}
	if !finite(maxX-minX) || !finite(maxY-minY) {
		return ""
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	// zero-velocity axis
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int(-minY/(maxY-minY)*float64(height-1))
		for col := range grid[row] {
			grid[row][col] = '─'
		}
	}

	for _, pt := range pts {
		col := int((pt.Stretch - minX) / (maxX - minX) * float64(width-1))
		row := height - 1 - int((pt.Velocity-minY)/(maxY-minY)*float64(height-1))
		grid[row][col] = '•'
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
