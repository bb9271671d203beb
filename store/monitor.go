package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// Monitor periodically pings a Store and logs its connection pool usage.
type Monitor struct {
	store     Store
	interval  time.Duration
	scheduler gocron.Scheduler
	healthy   atomic.Bool
	checks    atomic.Int64
}

func NewMonitor(store Store, interval time.Duration) (*Monitor, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	m := &Monitor{
		store:     store,
		interval:  interval,
		scheduler: scheduler,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(m.check),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Monitor) check() {
	defer m.checks.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	stats := m.store.Stats()
	entry := log.WithFields(log.Fields{
		"totalConns": stats.TotalConns,
		"idleConns":  stats.IdleConns,
		"timeouts":   stats.Timeouts,
	})

	if err := m.store.Ping(ctx); err != nil {
		if m.healthy.Swap(false) {
			entry.WithError(err).Error("Lock store became unreachable")
		} else {
			entry.WithError(err).Warn("Lock store is unreachable")
		}
		return
	}

	if !m.healthy.Swap(true) {
		entry.Info("Lock store is reachable")
		return
	}
	entry.Debug("Lock store health check")
}

func (m *Monitor) Start() {
	m.scheduler.Start()
}

func (m *Monitor) Stop() error {
	return m.scheduler.Shutdown()
}

func (m *Monitor) Healthy() bool {
	return m.healthy.Load()
}

// Checks is the number of completed health checks.
func (m *Monitor) Checks() int64 {
	return m.checks.Load()
}
