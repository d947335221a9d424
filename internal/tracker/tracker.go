// Package tracker ties enumeration, sampling and formatting into a single
// poll, and holds the config snapshot the host can replace at any time.
package tracker

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cptspacemanspiff/gnome-power-tracker/internal/collector"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/config"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/display"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/logging"
)

// Tracker produces poll results. Polls are read-only and may run from any
// goroutine; UpdateConfig swaps the snapshot atomically.
type Tracker struct {
	cfg     atomic.Pointer[config.Config]
	level   *slog.LevelVar
	changed chan struct{}

	enumLog    *slog.Logger
	sampleLog  *slog.Logger
	presentLog *slog.Logger
}

// New creates a Tracker using cfg. level is the logger's level variable;
// the tracker switches it to Debug whenever the config enables debug logging.
// It may be nil.
func New(cfg *config.Config, logger *slog.Logger, level *slog.LevelVar) (*Tracker, error) {
	valid, err := config.NormalizeAndValidate(cfg)
	if err != nil {
		return nil, err
	}
	t := &Tracker{
		level:      level,
		changed:    make(chan struct{}, 1),
		enumLog:    logger.With("topic", logging.TopicEnumerate),
		sampleLog:  logger.With("topic", logging.TopicSample),
		presentLog: logger.With("topic", logging.TopicPresent),
	}
	t.store(valid)
	return t, nil
}

// Config returns a copy of the current config.
func (t *Tracker) Config() *config.Config {
	return t.cfg.Load().Clone()
}

// Interval returns the current refresh interval.
func (t *Tracker) Interval() time.Duration {
	return t.cfg.Load().RefreshInterval()
}

// UpdateConfig validates cfg and makes it the snapshot used from the next
// poll on. An invalid config is rejected and the current one kept.
func (t *Tracker) UpdateConfig(cfg *config.Config) error {
	valid, err := config.NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}
	t.store(valid)

	select {
	case t.changed <- struct{}{}:
	default:
	}
	return nil
}

// ConfigChanged returns a channel that receives a value after each
// successful UpdateConfig. Bursts of updates coalesce into one value.
func (t *Tracker) ConfigChanged() <-chan struct{} {
	return t.changed
}

func (t *Tracker) store(cfg *config.Config) {
	t.cfg.Store(cfg)
	if t.level != nil {
		logging.SetDebug(t.level, cfg.Display.DebugLogging)
	}
}

// Poll enumerates batteries and reads each one. Devices that yield no
// usable metric are left out. The only error is a failed enumeration.
func (t *Tracker) Poll() ([]collector.BatterySample, error) {
	return t.poll(t.cfg.Load())
}

func (t *Tracker) poll(cfg *config.Config) ([]collector.BatterySample, error) {
	root := cfg.Sysfs.PowerSupplyPath
	ids, err := collector.Batteries(root)
	if err != nil {
		t.enumLog.Warn("enumerate power supplies", "root", root, "err", err)
		return nil, err
	}

	var samples []collector.BatterySample
	for id := range ids {
		t.enumLog.Debug("battery found", "device", id)
		r := collector.ReadBattery(root, id)
		switch {
		case r.Err != nil:
			t.sampleLog.Debug("read failed", "device", id, "err", r.Err)
			continue
		case r.Source == collector.SourceNone:
			t.sampleLog.Debug("no power metric", "device", id)
			continue
		}
		t.sampleLog.Debug("sample",
			"device", id,
			"source", r.Source.String(),
			"power_uw", r.RawPowerUW,
			"current_ua", r.RawCurrentUA,
			"voltage_uv", r.RawVoltageUV,
			"power_w", r.Sample.PowerWatts,
			"direction", r.Sample.Direction.String())
		samples = append(samples, r.Sample)
	}
	return samples, nil
}

// RunPoll performs one poll and returns the display string. It never
// fails: an enumeration error is rendered as display.ErrorText.
func (t *Tracker) RunPoll() string {
	cfg := t.cfg.Load()
	samples, err := t.poll(cfg)
	if err != nil {
		return display.ErrorText
	}
	text := display.Format(samples, display.OptionsFrom(cfg))
	t.presentLog.Debug("display", "batteries", len(samples), "text", text)
	return text
}
