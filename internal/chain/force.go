package chain

import "math"

// Sign is -1 for negative values and +1 otherwise, zero included.
func Sign(a float64) float64 {
	if a < 0 {
		return -1
	}
	return 1
}

// Acceleration evaluates the force law for b, which may be a scratch copy
// of one of c's blocks. Only b and its direct neighbors are read.
//
// The neighbor term is one-sided: the right spring when there is a right
// neighbor, otherwise the left neighbor's spring. A block at rest feels
// static friction and can only be pushed forward (the result is clamped at
// zero); a sliding block feels dynamic friction against its velocity.
func (c *Chain) Acceleration(b *Block) float64 {
	p := c.params

	a := 0.0
	if next := c.Next(b); next != nil {
		a = b.KC * (next.X - b.X - p.BlockWidth)
	} else if prev := c.Prev(b); prev != nil {
		a = prev.KC * (prev.X - b.X - p.BlockWidth)
	}

	drive := b.KP * (b.E - b.X)
	if math.Abs(b.V) <= p.VEpsilon {
		return math.Max(a+drive-Sign(b.V)*b.Friction, 0)
	}
	return a + drive - Sign(b.V)*p.FrictionD
}
