package dbus

import (
	"encoding/json"
	"fmt"
	"log/slog"

	godbus "github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/cptspacemanspiff/gnome-power-tracker/internal/collector"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/config"
)

const (
	busName   = "org.gnome.PowerTracker"
	objPath   = "/org/gnome/PowerTracker"
	ifaceName = "org.gnome.PowerTracker"

	displayChangedSignal = ifaceName + ".DisplayChanged"
)

const introspectXML = `
<node>
  <interface name="` + ifaceName + `">
    <method name="RunPoll">
      <arg direction="out" type="s" name="text"/>
    </method>
    <method name="GetSamples">
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetConfig">
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="UpdateConfig">
      <arg direction="in" type="s" name="json"/>
    </method>
    <signal name="DisplayChanged">
      <arg type="s" name="text"/>
    </signal>
  </interface>
` + introspect.IntrospectDataString + `
</node>`

// Core is the tracker API the service exposes.
type Core interface {
	RunPoll() string
	Poll() ([]collector.BatterySample, error)
	Config() *config.Config
	UpdateConfig(*config.Config) error
}

// Service exposes the power tracker over D-Bus.
type Service struct {
	core      Core
	savePath  string
	overrides func(*config.Config)
	conn      *godbus.Conn
	log       *slog.Logger
}

// NewService creates a new D-Bus service. When savePath is not empty,
// accepted UpdateConfig calls are merged over that file and written back to it.
func NewService(core Core, savePath string, logger *slog.Logger) *Service {
	return &Service{core: core, savePath: savePath, log: logger}
}

// SetOverrides registers fn to adjust every config before it reaches the
// core. Overrides are never written to savePath.
func (s *Service) SetOverrides(fn func(*config.Config)) {
	s.overrides = fn
}

// Export registers the service on the session bus.
func (s *Service) Export() (*godbus.Conn, error) {
	conn, err := godbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	if err := conn.Export(s, objPath, ifaceName); err != nil {
		return nil, fmt.Errorf("export %s: %w", ifaceName, err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), objPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(busName, godbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("request name: %w", err)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("name %s already taken", busName)
	}

	s.conn = conn
	return conn, nil
}

// Publish emits DisplayChanged with the latest display string.
func (s *Service) Publish(text string) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Emit(objPath, displayChangedSignal, text); err != nil {
		s.log.Warn("emit DisplayChanged", "err", err)
	}
}

// RunPoll polls immediately and returns the display string.
func (s *Service) RunPoll() (string, *godbus.Error) {
	return s.core.RunPoll(), nil
}

// GetSamples returns the current per-battery samples as JSON.
func (s *Service) GetSamples() (string, *godbus.Error) {
	samples, err := s.core.Poll()
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	if samples == nil {
		samples = []collector.BatterySample{}
	}
	data, err := json.Marshal(map[string]any{"samples": samples})
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return string(data), nil
}

// GetConfig returns the active config as JSON.
func (s *Service) GetConfig() (string, *godbus.Error) {
	data, err := json.Marshal(s.core.Config())
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return string(data), nil
}

// UpdateConfig merges the given JSON over the config file (or the active
// config when nothing is saved) and applies it. Fields absent from the JSON
// keep their current values.
func (s *Service) UpdateConfig(jsonStr string) *godbus.Error {
	base, err := s.baseConfig()
	if err != nil {
		return godbus.MakeFailedError(err)
	}
	if err := json.Unmarshal([]byte(jsonStr), base); err != nil {
		return godbus.MakeFailedError(fmt.Errorf("decode config: %w", err))
	}
	valid, err := config.NormalizeAndValidate(base)
	if err != nil {
		return godbus.MakeFailedError(err)
	}
	if s.savePath != "" {
		if err := config.Save(s.savePath, valid); err != nil {
			return godbus.MakeFailedError(err)
		}
	}

	active := valid.Clone()
	if s.overrides != nil {
		s.overrides(active)
	}
	if err := s.core.UpdateConfig(active); err != nil {
		return godbus.MakeFailedError(err)
	}
	s.log.Info("config updated",
		"refresh_interval_seconds", active.Display.RefreshIntervalSeconds,
		"show_zero_power", active.Display.ShowZeroPower,
		"debug_logging", active.Display.DebugLogging)
	return nil
}

func (s *Service) baseConfig() (*config.Config, error) {
	if s.savePath == "" {
		return s.core.Config(), nil
	}
	cfg, err := config.LoadOrDefault(s.savePath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.savePath, err)
	}
	return cfg, nil
}
