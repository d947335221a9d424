// Package scheduler runs polls on a timer and hands each result to the host.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Poller is the part of the tracker the scheduler drives.
type Poller interface {
	RunPoll() string
	Interval() time.Duration
	ConfigChanged() <-chan struct{}
}

// Scheduler runs one poll at a time: at start, on every tick, and on wake
// from suspend. Polls never overlap because they all run on the Run goroutine.
type Scheduler struct {
	poller  Poller
	publish func(string)
	wake    <-chan struct{}
	log     *slog.Logger
}

// New creates a Scheduler. wake may be nil when no sleep monitor is available.
func New(poller Poller, publish func(string), wake <-chan struct{}, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		poller:  poller,
		publish: publish,
		wake:    wake,
		log:     logger,
	}
}

// Run polls until ctx is cancelled. A poll already in progress when ctx is
// cancelled runs to completion.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.poller.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", "interval", interval)
	s.poll("start")

	for {
		select {
		case <-ticker.C:
			s.poll("tick")
		case <-s.poller.ConfigChanged():
			if next := s.poller.Interval(); next != interval {
				ticker.Reset(next)
				s.log.Info("interval changed", "from", interval, "to", next)
				interval = next
			}
		case <-s.wake:
			s.poll("wake")
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) poll(reason string) {
	text := s.poller.RunPoll()
	s.log.Debug("poll", "reason", reason, "text", text)
	s.publish(text)
}
