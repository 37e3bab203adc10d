package syncing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"notesync/internal/core/domain"
	"notesync/internal/infra/remote"
	"notesync/internal/syncing/metrics"
)

// MonitorConfig holds availability probe settings.
type MonitorConfig struct {
	Interval time.Duration // time between probes
	Warmup   time.Duration // delay before the first probe
}

// Monitor periodically probes the remote store with a cheap bounded
// history fetch and flips the availability state. On each transition
// into available it triggers exactly one buffer drain.
type Monitor struct {
	store  remote.Store
	buffer *Buffer
	saver  *Saver
	cfg    MonitorConfig
	log    *slog.Logger

	// onFlap, if set, is notified once per availability transition.
	onFlap func(available bool)

	mu        sync.RWMutex
	state     domain.AvailabilityState
	lastProbe time.Time

	stop chan struct{}
	done chan struct{}
}

// NewMonitor creates a new availability monitor.
func NewMonitor(store remote.Store, buffer *Buffer, saver *Saver, cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Warmup <= 0 {
		cfg.Warmup = 10 * time.Second
	}
	return &Monitor{
		store:  store,
		buffer: buffer,
		saver:  saver,
		cfg:    cfg,
		log:    slog.Default().With("component", "monitor"),
		state:  domain.AvailabilityUnknown,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// OnFlap registers a callback notified once per availability
// transition. Must be called before Start.
func (m *Monitor) OnFlap(fn func(available bool)) {
	m.onFlap = fn
}

// State returns the current availability state.
func (m *Monitor) State() domain.AvailabilityState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Available reports whether the remote is currently known to be up.
func (m *Monitor) Available() bool {
	return m.State() == domain.AvailabilityAvailable
}

// LastProbe returns when the remote was last probed.
func (m *Monitor) LastProbe() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastProbe
}

// Start launches the probe loop. First probe fires after the warmup
// delay, then every interval.
func (m *Monitor) Start(ctx context.Context) {
	go m.run(ctx)
}

// Stop halts the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	select {
	case <-ctx.Done():
		return
	case <-m.stop:
		return
	case <-time.After(m.cfg.Warmup):
	}

	m.Probe(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Probe performs one liveness check and handles any state transition.
// A failed probe is not retried; the next interval tries again.
func (m *Monitor) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.Interval)
	_, err := m.store.FetchRecent(probeCtx, 1)
	cancel()

	available := err == nil
	if available {
		metrics.ProbesTotal.WithLabelValues("up").Inc()
	} else {
		metrics.ProbesTotal.WithLabelValues("down").Inc()
		m.log.Debug("availability probe failed", "error", err)
	}

	m.transition(ctx, available)
	return available
}

func (m *Monitor) transition(ctx context.Context, available bool) {
	next := domain.AvailabilityUnavailable
	if available {
		next = domain.AvailabilityAvailable
	}

	m.mu.Lock()
	prev := m.state
	m.state = next
	m.lastProbe = time.Now()
	m.mu.Unlock()

	if available {
		metrics.RemoteAvailable.Set(1)
	} else {
		metrics.RemoteAvailable.Set(0)
	}

	if prev == next {
		return
	}

	m.log.Info("remote availability changed", "from", prev, "to", next)

	if m.onFlap != nil {
		m.onFlap(available)
	}

	if next == domain.AvailabilityAvailable && m.buffer.Len() > 0 {
		synced, failed := m.buffer.Drain(ctx, func(ctx context.Context, rec domain.Record) error {
			_, err := m.saver.Save(ctx, rec)
			return err
		})
		m.log.Info("drain after recovery finished", "synced", synced, "failed", failed)
	}
}
