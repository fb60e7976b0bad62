package predict

import (
	"github.com/pulsegrid/predictsync/pkg/interp"
	"github.com/pulsegrid/predictsync/pkg/smooth"
)

// Options collects every per-controller tunable from spec.md §6, except
// TickInterval which belongs to the scene-wide clock.
type Options struct {
	HistorySize             int
	ReconciliationTolerance float64
	MaxInputsPerTick        int
	MaxVisualOffset         float64

	Smoother     smooth.Options
	Interpolator interp.Options
}

// DefaultOptions returns spec.md §6's defaults.
func DefaultOptions() Options {
	return Options{
		HistorySize:             128,
		ReconciliationTolerance: 0.1,
		MaxInputsPerTick:        5,
		MaxVisualOffset:         2.0,
		Smoother:                smooth.DefaultOptions(),
		Interpolator:            interp.DefaultOptions(),
	}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.HistorySize <= 0 {
		o.HistorySize = d.HistorySize
	}
	if o.MaxInputsPerTick <= 0 {
		o.MaxInputsPerTick = d.MaxInputsPerTick
	}
	if o.MaxVisualOffset <= 0 {
		o.MaxVisualOffset = d.MaxVisualOffset
	}
	return o
}
