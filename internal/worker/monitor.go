package worker

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/reservasegura/monitor/internal/model"
	"github.com/reservasegura/monitor/internal/scheduler"
	"github.com/reservasegura/monitor/internal/service"
	"github.com/reservasegura/monitor/pkg/metrics"
)

// Due-window bounds. Departed reservations age out after a day; far-future
// ones enter the window 30 days before departure.
const (
	windowBehind = 24 * time.Hour
	windowAhead  = 30 * 24 * time.Hour
)

// Randomized pause between consecutive reservations in a cycle, to avoid
// hammering the airlines with a burst of lookups.
const (
	interItemDelayMin = 2 * time.Second
	interItemDelayMax = 5 * time.Second
)

// Monitor drives periodic monitoring cycles over all due reservations.
// Cycles are strictly sequential: one cycle at a time, one reservation at
// a time.
type Monitor struct {
	service      *service.MonitoringService
	reservations service.ReservationStore
	metrics      *metrics.Metrics
	cadence      time.Duration
	schedule     string

	// Randomized pause between reservations; zeroed in tests.
	delayMin time.Duration
	delayMax time.Duration

	mu       sync.Mutex
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMonitor creates the monitoring worker. cadence is the tick interval;
// schedule is the human-readable cron expression reported by Status.
func NewMonitor(
	svc *service.MonitoringService,
	reservations service.ReservationStore,
	m *metrics.Metrics,
	cadence time.Duration,
	schedule string,
) *Monitor {
	if cadence <= 0 {
		cadence = 30 * time.Minute
	}
	return &Monitor{
		service:      svc,
		reservations: reservations,
		metrics:      m,
		cadence:      cadence,
		schedule:     schedule,
		delayMin:     interItemDelayMin,
		delayMax:     interItemDelayMax,
	}
}

// Start launches the tick loop. Calling Start on a running worker is a
// logged no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		slog.Info("Monitoring worker already running")
		return
	}

	slog.Info("Starting monitoring worker",
		"cadence", m.cadence,
		"schedule", m.schedule,
	)

	m.ticker = time.NewTicker(m.cadence)
	m.stopChan = make(chan struct{})
	m.running = true
	m.wg.Add(1)

	go m.run(ctx)
}

// Stop halts future ticks. An in-flight cycle finishes; Stop waits for it
// bounded by ctx. Calling Stop on a stopped worker is a logged no-op.
func (m *Monitor) Stop(ctx context.Context) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		slog.Info("Monitoring worker already stopped")
		return
	}
	m.running = false
	close(m.stopChan)
	m.ticker.Stop()
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Monitoring worker stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for monitoring cycle to complete")
	}
}

// TriggerManually runs one cycle synchronously on the caller's goroutine,
// regardless of worker state.
func (m *Monitor) TriggerManually(ctx context.Context) model.CycleReport {
	slog.Info("Manual monitoring cycle triggered")
	return m.runCycle(ctx)
}

// Status reports the worker run state and the next tick estimate.
func (m *Monitor) Status() model.WorkerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := model.WorkerStatus{
		IsRunning: m.running,
		Schedule:  m.schedule,
	}
	if m.running {
		if next, err := nextRunEstimate(m.schedule, time.Now().UTC()); err == nil {
			status.NextRunEstimate = &next
		}
	}
	return status
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	// Bootstrap cycle shortly after start, so a fresh deployment does not
	// sit idle until the first tick.
	select {
	case <-time.After(10 * time.Second):
		m.runCycle(ctx)
	case <-m.stopChan:
		return
	case <-ctx.Done():
		return
	}

	for {
		select {
		case <-m.ticker.C:
			m.runCycle(ctx)
		case <-m.stopChan:
			return
		case <-ctx.Done():
			slog.Info("Monitoring worker context done")
			return
		}
	}
}

// runCycle processes every due reservation once.
func (m *Monitor) runCycle(ctx context.Context) model.CycleReport {
	now := time.Now().UTC()
	report := model.CycleReport{
		CycleID:   uuid.New().String(),
		StartedAt: now,
	}

	m.mu.Lock()
	stop := m.stopChan
	m.mu.Unlock()

	slog.Info("Monitoring cycle started", "cycle_id", report.CycleID)

	candidates, err := m.reservations.FindDue(ctx, now.Add(-windowBehind), now.Add(windowAhead))
	if err != nil {
		slog.Error("Failed to query due reservations",
			"cycle_id", report.CycleID,
			"error", err,
		)
		report.Duration = time.Since(now)
		return report
	}

	due := make([]model.MonitoredReservation, 0, len(candidates))
	for _, res := range candidates {
		if scheduler.IsDue(res.LastCheckedAt, res.DepartureDate, now) {
			due = append(due, res)
		}
	}
	report.Eligible = len(due)

	if len(due) == 0 {
		slog.Info("No reservations due", "cycle_id", report.CycleID)
		report.Duration = time.Since(now)
		m.finishCycle(report)
		return report
	}

	slog.Info("Reservations due for check",
		"cycle_id", report.CycleID,
		"count", len(due),
	)

	for i := range due {
		select {
		case <-stop:
			slog.Info("Cycle interrupted by stop", "cycle_id", report.CycleID)
			report.Duration = time.Since(now)
			m.finishCycle(report)
			return report
		case <-ctx.Done():
			report.Duration = time.Since(now)
			m.finishCycle(report)
			return report
		default:
		}

		res := &due[i]
		changes, err := m.service.Check(ctx, res)
		if err != nil {
			report.Errored++
			slog.Warn("Reservation check failed",
				"cycle_id", report.CycleID,
				"booking_code", res.BookingCode,
				"error", err,
			)
		} else {
			report.Checked++
			if len(changes) > 0 {
				report.Changed++
			}
		}

		if i < len(due)-1 {
			m.sleepWithJitter(ctx, stop)
		}
	}

	report.Duration = time.Since(now)
	m.finishCycle(report)
	return report
}

func (m *Monitor) finishCycle(report model.CycleReport) {
	slog.Info("Monitoring cycle finished",
		"cycle_id", report.CycleID,
		"duration_ms", report.Duration.Milliseconds(),
		"eligible", report.Eligible,
		"checked", report.Checked,
		"changed", report.Changed,
		"errored", report.Errored,
	)
	if m.metrics != nil {
		m.metrics.CyclesRun.Inc()
		m.metrics.CycleDuration.Observe(report.Duration.Seconds())
	}
}

// sleepWithJitter pauses between reservations, returning early on stop or
// context cancellation.
func (m *Monitor) sleepWithJitter(ctx context.Context, stop <-chan struct{}) {
	if m.delayMax <= m.delayMin {
		return
	}
	delay := m.delayMin + time.Duration(rand.Int63n(int64(m.delayMax-m.delayMin)))

	select {
	case <-time.After(delay):
	case <-stop:
	case <-ctx.Done():
	}
}

// nextRunEstimate parses the cron schedule and returns the next fire time.
func nextRunEstimate(schedule string, now time.Time) (time.Time, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now), nil
}
