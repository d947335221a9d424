// Command power-tracker reports battery power draw for a desktop panel.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/gnome-power-tracker/internal/config"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/logging"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/tracker"
)

var (
	configPath = config.DefaultConfigPath
	sysfsPath  string
	verbose    bool
	logTopics  string
)

// app is what every subcommand needs: the effective config, the root
// logger and a tracker built from both.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracker *tracker.Tracker
}

func newApp() (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	applyFlagOverrides(cfg)

	level := new(slog.LevelVar)
	logger := logging.New(os.Stderr, level, logTopics)

	tr, err := tracker.New(cfg, logger, level)
	if err != nil {
		return nil, err
	}
	return &app{cfg: tr.Config(), logger: logger, tracker: tr}, nil
}

// applyFlagOverrides applies --sysfs and --verbose to cfg. The overrides
// only live in memory and are never saved to the config file.
func applyFlagOverrides(cfg *config.Config) {
	if sysfsPath != "" {
		cfg.Sysfs.PowerSupplyPath = sysfsPath
	}
	if verbose {
		cfg.Display.DebugLogging = true
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "power-tracker",
		Short: "Report instantaneous battery power draw",
		Long: `power-tracker reads battery sensors under /sys/class/power_supply and
renders the current charge or discharge power as a short panel string,
e.g. "-12.3W" or "Main -8.0W, Ext +6.0W".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "config file path (defaults are used if it does not exist)")
	cmd.PersistentFlags().StringVar(&sysfsPath, "sysfs", "", "override the power-supply directory")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&logTopics, "log", "", "comma-separated log topics: enumerate,sample,present,schedule,dbus,config,sleep (or 'all')")

	cmd.AddCommand(
		NewPollCommand(),
		NewDevicesCommand(),
		NewDaemonCommand(),
		NewConfigCommand(),
	)

	return cmd
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
