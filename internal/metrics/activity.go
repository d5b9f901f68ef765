package metrics

import (
	"math"

	"github.com/san-kum/quakesim/internal/chain"
)

// Activity is the fraction of samples in which at least one block was
// sliding faster than the stick velocity.
type Activity struct {
	name     string
	vEpsilon float64
	slipping int
	samples  int
}

func NewActivity(vEpsilon float64) *Activity {
	return &Activity{
		name:     "activity",
		vEpsilon: vEpsilon,
	}
}

func (a *Activity) Name() string {
	return a.name
}

func (a *Activity) Observe(c *chain.Chain) {
	a.samples++
	for i := range c.Blocks() {
		if c.Block(i).Moving(a.vEpsilon) {
			a.slipping++
			break
		}
	}
}

func (a *Activity) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.slipping) / float64(a.samples)
}

func (a *Activity) Reset() {
	a.slipping = 0
	a.samples = 0
}

// MeanSpeed averages the summed block speed over all samples.
type MeanSpeed struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{
		name: "mean_speed",
	}
}

func (m *MeanSpeed) Name() string {
	return m.name
}

func (m *MeanSpeed) Observe(c *chain.Chain) {
	for _, b := range c.Blocks() {
		m.sum += math.Abs(b.V)
	}
	m.samples++
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}
