package subagent

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StaleMonitor periodically scans the registry for jobs that have been
// running longer than warnAfter and logs a structured warning plus a
// running-count gauge refresh. It never mutates job state — cancellation
// is always caller-initiated — so it cannot interfere with any job's
// lifecycle.
type StaleMonitor struct {
	mgr       *Manager
	warnAfter time.Duration
	log       *slog.Logger

	cron    *cron.Cron
	entryID cron.EntryID
}

// NewStaleMonitor builds a monitor that sweeps on schedule (default
// "*/5 * * * *") and flags jobs running past warnAfter.
func NewStaleMonitor(mgr *Manager, schedule string, warnAfter time.Duration, log *slog.Logger) (*StaleMonitor, error) {
	if schedule == "" {
		schedule = "*/5 * * * *"
	}
	if warnAfter <= 0 {
		warnAfter = 30 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	m := &StaleMonitor{
		mgr:       mgr,
		warnAfter: warnAfter,
		log:       log,
		cron:      cron.New(),
	}

	id, err := m.cron.AddFunc(schedule, m.sweep)
	if err != nil {
		return nil, err
	}
	m.entryID = id
	return m, nil
}

// Start begins the cron scheduler's own goroutine loop.
func (m *StaleMonitor) Start() {
	m.cron.Start()
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (m *StaleMonitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// sweep is invoked by the cron scheduler on the configured cadence.
func (m *StaleMonitor) sweep() {
	now := time.Now()
	records := m.mgr.reg.all()

	running := 0
	stale := 0
	for _, rec := range records {
		snap := rec.snapshotStatus()
		if snap.status != StatusRunning {
			continue
		}
		running++
		age := now.Sub(snap.startedAt)
		if age > m.warnAfter {
			stale++
			m.log.Warn("subagent job running past stale threshold",
				"jobId", rec.id,
				"age", age.String(),
				"threshold", m.warnAfter.String(),
			)
		}
	}

	m.mgr.metrics.SetRunning(running)
	if stale > 0 {
		m.log.Warn("stale job sweep complete", "running", running, "stale", stale)
	}
}
