package dbus

import (
	"log/slog"

	godbus "github.com/godbus/dbus/v5"
)

const (
	login1Iface           = "org.freedesktop.login1.Manager"
	prepareForSleepMember = "PrepareForSleep"
)

// SleepMonitor listens for systemd-logind PrepareForSleep signals. Battery
// state usually changes across a suspend, so the scheduler polls again
// right after wake instead of waiting for the next tick.
type SleepMonitor struct {
	conn *godbus.Conn
	done chan struct{}
	wake chan struct{}
	log  *slog.Logger
}

// NewSleepMonitor creates a new sleep monitor connected to the system bus.
func NewSleepMonitor(logger *slog.Logger) (*SleepMonitor, error) {
	conn, err := godbus.SystemBus()
	if err != nil {
		return nil, err
	}

	err = conn.AddMatchSignal(
		godbus.WithMatchInterface(login1Iface),
		godbus.WithMatchMember(prepareForSleepMember),
	)
	if err != nil {
		return nil, err
	}

	m := &SleepMonitor{
		conn: conn,
		done: make(chan struct{}),
		wake: make(chan struct{}, 1),
		log:  logger,
	}
	ch := make(chan *godbus.Signal, 16)
	conn.Signal(ch)
	go m.listen(ch)
	return m, nil
}

// Wake returns a channel that receives a value each time the system wakes from sleep.
func (m *SleepMonitor) Wake() <-chan struct{} {
	return m.wake
}

// Close stops the monitor.
func (m *SleepMonitor) Close() {
	close(m.done)
}

func (m *SleepMonitor) listen(ch chan *godbus.Signal) {
	defer m.conn.RemoveSignal(ch)

	for {
		select {
		case sig := <-ch:
			m.handle(sig)
		case <-m.done:
			return
		}
	}
}

func (m *SleepMonitor) handle(sig *godbus.Signal) {
	if sig == nil || sig.Name != login1Iface+"."+prepareForSleepMember || len(sig.Body) < 1 {
		return
	}
	active, ok := sig.Body[0].(bool)
	if !ok {
		return
	}
	if active {
		m.log.Info("system going to sleep")
		return
	}
	m.log.Info("system woke up")
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
