package dbus

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cptspacemanspiff/gnome-power-tracker/internal/config"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/tracker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDevice(t *testing.T, root, id string, files map[string]string) {
	t.Helper()

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatalf("write %s/%s: %v", id, name, err)
		}
	}
}

func newTestService(t *testing.T, root, savePath string) (*Service, *tracker.Tracker) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Sysfs.PowerSupplyPath = root
	tr, err := tracker.New(cfg, discardLogger(), nil)
	if err != nil {
		t.Fatalf("tracker.New() error = %v", err)
	}
	return NewService(tr, savePath, discardLogger()), tr
}

func TestService_RunPoll(t *testing.T) {
	root := t.TempDir()
	writeDevice(t, root, "BAT0", map[string]string{
		"type":      "Battery\n",
		"status":    "Charging\n",
		"power_now": "15200000\n",
	})
	svc, _ := newTestService(t, root, "")

	text, dbusErr := svc.RunPoll()
	if dbusErr != nil {
		t.Fatalf("RunPoll() error = %v", dbusErr)
	}
	if text != "+15.2W" {
		t.Fatalf("RunPoll() = %q, want +15.2W", text)
	}
}

func TestService_GetSamplesJSONShape(t *testing.T) {
	root := t.TempDir()
	writeDevice(t, root, "BAT0", map[string]string{
		"type":      "Battery\n",
		"status":    "Discharging\n",
		"power_now": "7000000\n",
	})
	svc, _ := newTestService(t, root, "")

	samplesJSON, dbusErr := svc.GetSamples()
	if dbusErr != nil {
		t.Fatalf("GetSamples() error = %v", dbusErr)
	}
	var got struct {
		Samples []struct {
			DeviceID   string  `json:"device_id"`
			PowerWatts float64 `json:"power_watts"`
			Direction  string  `json:"direction"`
		} `json:"samples"`
	}
	if err := json.Unmarshal([]byte(samplesJSON), &got); err != nil {
		t.Fatalf("unmarshal samples JSON: %v", err)
	}
	if len(got.Samples) != 1 {
		t.Fatalf("samples = %s, want one entry", samplesJSON)
	}
	s := got.Samples[0]
	if s.DeviceID != "BAT0" || s.PowerWatts != 7 || s.Direction != "Discharging" {
		t.Fatalf("sample = %+v, want BAT0 7W Discharging", s)
	}
}

func TestService_GetSamplesEmptyIsArray(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir(), "")

	samplesJSON, dbusErr := svc.GetSamples()
	if dbusErr != nil {
		t.Fatalf("GetSamples() error = %v", dbusErr)
	}
	if samplesJSON != `{"samples":[]}` {
		t.Fatalf("GetSamples() = %s, want empty array", samplesJSON)
	}
}

func TestService_GetSamplesEnumerationFailure(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "missing"), "")

	if _, dbusErr := svc.GetSamples(); dbusErr == nil {
		t.Fatal("GetSamples() error = nil, want D-Bus error")
	}
	text, _ := svc.RunPoll()
	if text != "? W" {
		t.Fatalf("RunPoll() = %q, want error text", text)
	}
}

func TestService_GetConfig(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir(), "")

	cfgJSON, dbusErr := svc.GetConfig()
	if dbusErr != nil {
		t.Fatalf("GetConfig() error = %v", dbusErr)
	}
	var cfg map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		t.Fatalf("unmarshal config JSON: %v", err)
	}
	for _, key := range []string{"display", "sysfs", "labels"} {
		if _, ok := cfg[key]; !ok {
			t.Fatalf("config JSON missing key %q: %s", key, cfgJSON)
		}
	}
}

func TestService_UpdateConfigPartial(t *testing.T) {
	svc, tr := newTestService(t, t.TempDir(), "")

	if dbusErr := svc.UpdateConfig(`{"display":{"refresh_interval_seconds":10,"show_zero_power":true}}`); dbusErr != nil {
		t.Fatalf("UpdateConfig() error = %v", dbusErr)
	}

	cfg := tr.Config()
	if cfg.Display.RefreshIntervalSeconds != 10 {
		t.Fatalf("RefreshIntervalSeconds = %d, want 10", cfg.Display.RefreshIntervalSeconds)
	}
	if !cfg.Display.ShowZeroPower {
		t.Fatal("ShowZeroPower = false, want true")
	}
	if cfg.Display.ZeroCutoffWatts != 0.1 {
		t.Fatalf("ZeroCutoffWatts = %v, want unchanged 0.1", cfg.Display.ZeroCutoffWatts)
	}
	if cfg.Labels["BAT1"] != "Ext" {
		t.Fatalf("Labels[BAT1] = %q, want unchanged Ext", cfg.Labels["BAT1"])
	}
}

func TestService_UpdateConfigInvalid(t *testing.T) {
	svc, tr := newTestService(t, t.TempDir(), "")

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"display":`},
		{"zero interval", `{"display":{"refresh_interval_seconds":0}}`},
		{"relative path", `{"sysfs":{"power_supply_path":"relative"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if dbusErr := svc.UpdateConfig(tt.json); dbusErr == nil {
				t.Fatal("UpdateConfig() error = nil, want D-Bus error")
			}
			if tr.Config().Display.RefreshIntervalSeconds != 3 {
				t.Fatal("rejected UpdateConfig() changed the active config")
			}
		})
	}
}

func TestService_UpdateConfigSaves(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "config.toml")
	svc, _ := newTestService(t, t.TempDir(), savePath)

	if dbusErr := svc.UpdateConfig(`{"display":{"debug_logging":true}}`); dbusErr != nil {
		t.Fatalf("UpdateConfig() error = %v", dbusErr)
	}

	saved, err := config.Load(savePath)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if !saved.Display.DebugLogging {
		t.Fatal("saved DebugLogging = false, want true")
	}
}

func TestService_PublishWithoutConnection(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir(), "")
	svc.Publish("+1.0W")
}

func TestService_UpdateConfigOverridesNotSaved(t *testing.T) {
	fileRoot := t.TempDir()
	overrideRoot := t.TempDir()
	savePath := filepath.Join(t.TempDir(), "config.toml")

	fileCfg := config.DefaultConfig()
	fileCfg.Sysfs.PowerSupplyPath = fileRoot
	if err := config.Save(savePath, fileCfg); err != nil {
		t.Fatalf("config.Save() error = %v", err)
	}

	svc, tr := newTestService(t, overrideRoot, savePath)
	svc.SetOverrides(func(cfg *config.Config) {
		cfg.Sysfs.PowerSupplyPath = overrideRoot
		cfg.Display.DebugLogging = true
	})

	if dbusErr := svc.UpdateConfig(`{"display":{"show_zero_power":true,"debug_logging":false}}`); dbusErr != nil {
		t.Fatalf("UpdateConfig() error = %v", dbusErr)
	}

	saved, err := config.Load(savePath)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if saved.Sysfs.PowerSupplyPath != fileRoot {
		t.Fatalf("saved PowerSupplyPath = %q, want %q", saved.Sysfs.PowerSupplyPath, fileRoot)
	}
	if saved.Display.DebugLogging || !saved.Display.ShowZeroPower {
		t.Fatalf("saved display = %+v, want show_zero_power only", saved.Display)
	}

	active := tr.Config()
	if active.Sysfs.PowerSupplyPath != overrideRoot {
		t.Fatalf("active PowerSupplyPath = %q, want %q", active.Sysfs.PowerSupplyPath, overrideRoot)
	}
	if !active.Display.DebugLogging || !active.Display.ShowZeroPower {
		t.Fatalf("active display = %+v, want debug and show_zero_power on", active.Display)
	}
}
