// Package metrics measures a chain once per sample.
package metrics

import "github.com/san-kum/quakesim/internal/chain"

type Metric interface {
	Name() string
	Observe(c *chain.Chain)
	Value() float64
	Reset()
}
