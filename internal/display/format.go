// Package display renders battery samples into the panel string.
package display

import (
	"fmt"
	"strings"

	"github.com/cptspacemanspiff/gnome-power-tracker/internal/collector"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/config"
)

const (
	// NoBatteryText is shown when no battery produced a sample.
	NoBatteryText = "No battery"
	// ErrorText is shown when the power-supply directory could not be listed.
	ErrorText = "? W"
)

// Options controls formatting.
type Options struct {
	ShowZeroPower   bool
	ZeroCutoffWatts float64
	Labels          map[string]string
}

// OptionsFrom derives formatting options from a config snapshot.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		ShowZeroPower:   cfg.Display.ShowZeroPower,
		ZeroCutoffWatts: cfg.Display.ZeroCutoffWatts,
		Labels:          cfg.Labels,
	}
}

// Format renders samples in the order given. A single battery is shown
// without a label; several are labelled and comma-joined. Samples below the
// zero cutoff are left out unless ShowZeroPower is set.
func Format(samples []collector.BatterySample, opts Options) string {
	switch len(samples) {
	case 0:
		return NoBatteryText
	case 1:
		s := samples[0]
		if opts.suppressed(s) {
			return ""
		}
		return value(s)
	}

	parts := make([]string, 0, len(samples))
	for _, s := range samples {
		if opts.suppressed(s) {
			continue
		}
		parts = append(parts, opts.label(s.DeviceID)+" "+value(s))
	}
	return strings.Join(parts, ", ")
}

func (o Options) suppressed(s collector.BatterySample) bool {
	if o.ShowZeroPower {
		return false
	}
	return s.PowerWatts <= 0 || s.PowerWatts < o.ZeroCutoffWatts
}

func (o Options) label(id string) string {
	if l, ok := o.Labels[id]; ok && l != "" {
		return l
	}
	return id
}

func value(s collector.BatterySample) string {
	return fmt.Sprintf("%s%.1fW", s.Direction.Sign(), s.PowerWatts)
}
