// Package config holds the process-wide tunables, loaded from an XML file
// the way the teacher's util.LoadConfig/SaveConfig do.
package config

import (
	"github.com/pulsegrid/predictsync/pkg/clock"
	"github.com/pulsegrid/predictsync/pkg/interp"
	"github.com/pulsegrid/predictsync/pkg/predict"
	"github.com/pulsegrid/predictsync/pkg/smooth"
	"github.com/pulsegrid/predictsync/util"
)

// Cfg is the process-wide loaded configuration, in the teacher's package-var
// style.
var Cfg = Config{}

// Config is the full set of tunables an operator may adjust per deployment,
// serialized as XML.
type Config struct {
	UDPAddress string `xml:"udp_address"`
	WebAddress string `xml:"web_address"`
	MaxRoom    int    `xml:"max_room"`

	JWTSecret string `xml:"jwt_secret"`

	TickInterval     float64 `xml:"tick_interval"`
	MaxTicksPerFrame int     `xml:"max_ticks_per_frame"`
	TargetTickAhead  uint32  `xml:"target_tick_ahead"`
	MaxTickDrift     uint32  `xml:"max_tick_drift"`

	HistorySize             int     `xml:"history_size"`
	ReconciliationTolerance float64 `xml:"reconciliation_tolerance"`
	MaxInputsPerTick        int     `xml:"max_inputs_per_tick"`
	MaxVisualOffset         float64 `xml:"max_visual_offset"`

	ErrorSmoothTime float64 `xml:"error_smooth_time"`

	InterpolationDelay float64 `xml:"interpolation_delay"`
	TeleportThreshold  float64 `xml:"teleport_threshold"`

	InputRatePerSecond float64 `xml:"input_rate_per_second"`
	InputBurst         int     `xml:"input_burst"`
}

// Default returns spec.md §6's defaults, matching the zero-value behavior
// of clock.DefaultOptions/predict.DefaultOptions/etc.
func Default() Config {
	clk := clock.DefaultOptions()
	pr := predict.DefaultOptions()
	return Config{
		UDPAddress: ":10086",
		WebAddress: ":8080",
		MaxRoom:    1024,

		JWTSecret: "predictsync-dev-secret-change-in-production",

		TickInterval:     clk.TickInterval,
		MaxTicksPerFrame: clk.MaxTicksPerFrame,
		TargetTickAhead:  clk.TargetTickAhead,
		MaxTickDrift:     clk.MaxTickDrift,

		HistorySize:             pr.HistorySize,
		ReconciliationTolerance: pr.ReconciliationTolerance,
		MaxInputsPerTick:        pr.MaxInputsPerTick,
		MaxVisualOffset:         pr.MaxVisualOffset,

		ErrorSmoothTime: pr.Smoother.ErrorSmoothTime,

		InterpolationDelay: pr.Interpolator.InterpolationDelay,
		TeleportThreshold:  pr.Interpolator.TeleportThreshold,

		InputRatePerSecond: 60,
		InputBurst:         10,
	}
}

// LoadConfig reads and parses file into Cfg.
func LoadConfig(file string) error {
	Cfg = Default()
	return util.LoadConfig(file, &Cfg)
}

// SaveConfig writes Cfg to file, e.g. to seed a starter config on disk.
func SaveConfig(file string) error {
	return util.SaveConfig(file, &Cfg)
}

// ClockOptions projects the relevant fields into clock.Options.
func (c Config) ClockOptions() clock.Options {
	return clock.Options{
		TickInterval:     c.TickInterval,
		MaxTicksPerFrame: c.MaxTicksPerFrame,
		TargetTickAhead:  c.TargetTickAhead,
		MaxTickDrift:     c.MaxTickDrift,
	}
}

// PredictOptions projects the relevant fields into predict.Options.
func (c Config) PredictOptions() predict.Options {
	return predict.Options{
		HistorySize:             c.HistorySize,
		ReconciliationTolerance: c.ReconciliationTolerance,
		MaxInputsPerTick:        c.MaxInputsPerTick,
		MaxVisualOffset:         c.MaxVisualOffset,
		Smoother:                smooth.Options{ErrorSmoothTime: c.ErrorSmoothTime},
		Interpolator: interp.Options{
			InterpolationDelay: c.InterpolationDelay,
			TeleportThreshold:  c.TeleportThreshold,
			HistorySize:        c.HistorySize,
		},
	}
}
