package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	substepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakesim_substeps_total",
		Help: "Fixed-size substeps applied to the chain.",
	})

	framesCappedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakesim_frames_capped_total",
		Help: "Frames whose substep count hit max_substeps.",
	})

	resetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakesim_resets_total",
		Help: "Chain rebuilds, including the initial build.",
	})

	maxDisplacement = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quakesim_max_displacement",
		Help: "Largest block position reached by the most recently advanced chain.",
	})
)
