package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/gnome-power-tracker/internal/config"
	dbussvc "github.com/cptspacemanspiff/gnome-power-tracker/internal/dbus"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/logging"
	"github.com/cptspacemanspiff/gnome-power-tracker/internal/scheduler"
)

func NewDaemonCommand() *cobra.Command {
	var persist bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Serve the panel string over D-Bus and refresh it on a timer",
		Long: `Run the power tracker on the session bus as org.gnome.PowerTracker.

Each refresh emits a DisplayChanged signal. Hosts can also call RunPoll,
GetSamples, GetConfig and UpdateConfig. Edits to the config file are picked
up without a restart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			logger := a.logger

			svc := newService(a, persist)
			conn, err := svc.Export()
			if err != nil {
				return err
			}
			defer conn.Close()
			logger.Info("D-Bus service registered", "name", "org.gnome.PowerTracker")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			configLog := logger.With("topic", logging.TopicConfig)
			watcher, err := config.NewWatcher(configPath, func(cfg *config.Config) {
				applyFlagOverrides(cfg)
				if err := a.tracker.UpdateConfig(cfg); err != nil {
					configLog.Warn("apply reloaded config", "err", err)
				}
			}, configLog)
			if err != nil {
				logger.Warn("config watcher unavailable", "err", err)
			} else {
				go watcher.Run(ctx)
			}

			// A resume from suspend triggers an immediate poll.
			var wakeCh <-chan struct{}
			sleepMon, err := dbussvc.NewSleepMonitor(logger.With("topic", logging.TopicSleep))
			if err != nil {
				logger.Warn("sleep monitor unavailable", "err", err)
			} else {
				wakeCh = sleepMon.Wake()
				defer sleepMon.Close()
			}

			s := scheduler.New(a.tracker, svc.Publish, wakeCh, logger.With("topic", logging.TopicSchedule))
			s.Run(ctx)
			logger.Info("shutting down")
			return nil
		},
	}

	cmd.Flags().BoolVar(&persist, "persist", false, "write configs accepted over D-Bus back to the config file")
	return cmd
}

// newService builds the D-Bus service for a. With persist, accepted config
// updates are written to the config file without the flag overrides.
func newService(a *app, persist bool) *dbussvc.Service {
	savePath := ""
	if persist {
		savePath = configPath
	}
	svc := dbussvc.NewService(a.tracker, savePath, a.logger.With("topic", logging.TopicDBus))
	svc.SetOverrides(applyFlagOverrides)
	return svc
}
