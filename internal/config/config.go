package config

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	minRefreshIntervalSeconds = 1
	maxRefreshIntervalSeconds = 3600
	minZeroCutoffWatts        = 0.0
	maxZeroCutoffWatts        = 10.0
)

// Config is the full power-tracker configuration. The host owns the file;
// the daemon only reads it, or rewrites it on an explicit UpdateConfig.
type Config struct {
	Display DisplayConfig     `toml:"display" json:"display"`
	Sysfs   SysfsConfig       `toml:"sysfs" json:"sysfs"`
	Labels  map[string]string `toml:"labels" json:"labels"`
}

type DisplayConfig struct {
	RefreshIntervalSeconds int     `toml:"refresh_interval_seconds" json:"refresh_interval_seconds"`
	ShowZeroPower          bool    `toml:"show_zero_power" json:"show_zero_power"`
	DebugLogging           bool    `toml:"debug_logging" json:"debug_logging"`
	ZeroCutoffWatts        float64 `toml:"zero_cutoff_watts" json:"zero_cutoff_watts"`
}

type SysfsConfig struct {
	PowerSupplyPath string `toml:"power_supply_path" json:"power_supply_path"`
}

// DefaultZeroCutoffWatts absorbs sensor noise near full charge.
const DefaultZeroCutoffWatts = 0.1

// DefaultConfigPath is where the daemon looks for a config file when none is given.
const DefaultConfigPath = "/etc/power-tracker/config.toml"

func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			RefreshIntervalSeconds: 3,
			ShowZeroPower:          false,
			DebugLogging:           false,
			ZeroCutoffWatts:        DefaultZeroCutoffWatts,
		},
		Sysfs: SysfsConfig{
			PowerSupplyPath: "/sys/class/power_supply",
		},
		Labels: map[string]string{
			"BAT0": "Main",
			"BAT1": "Ext",
		},
	}
}

// RefreshInterval returns the poll interval as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Display.RefreshIntervalSeconds) * time.Second
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return NormalizeAndValidate(cfg)
}

// LoadOrDefault loads path, falling back to DefaultConfig when the file does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return NormalizeAndValidate(DefaultConfig())
	}
	return cfg, err
}

func NormalizeAndValidate(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	sanitized := *cfg
	sanitized.Labels = make(map[string]string, len(cfg.Labels))
	for id, label := range cfg.Labels {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("labels: device id must not be empty")
		}
		sanitized.Labels[id] = strings.TrimSpace(label)
	}

	var err error
	sanitized.Sysfs.PowerSupplyPath, err = sanitizePath("sysfs.power_supply_path", sanitized.Sysfs.PowerSupplyPath)
	if err != nil {
		return nil, err
	}

	if err := validateRange("display.refresh_interval_seconds", sanitized.Display.RefreshIntervalSeconds, minRefreshIntervalSeconds, maxRefreshIntervalSeconds); err != nil {
		return nil, err
	}
	if v := sanitized.Display.ZeroCutoffWatts; v < minZeroCutoffWatts || v > maxZeroCutoffWatts {
		return nil, fmt.Errorf("display.zero_cutoff_watts must be between %.1f and %.1f, got %g", minZeroCutoffWatts, maxZeroCutoffWatts, v)
	}

	return &sanitized, nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Labels = maps.Clone(c.Labels)
	return &out
}

// Encode writes cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	var data bytes.Buffer
	if err := toml.NewEncoder(&data).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config TOML: %w", err)
	}
	return data.Bytes(), nil
}

func Save(path string, cfg *Config) error {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return fmt.Errorf("config path must not be empty")
	}

	sanitized, err := NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}

	data, err := Encode(sanitized)
	if err != nil {
		return err
	}

	dir := filepath.Dir(trimmedPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, trimmedPath); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	tmpPath = ""

	return nil
}

func sanitizePath(name, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s must not be empty", name)
	}
	cleaned := filepath.Clean(trimmed)
	if !filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%s must be an absolute path, got %q", name, value)
	}
	return cleaned, nil
}

func validateRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}

	return nil
}
