package model

import "time"

// CycleReport summarizes one monitoring cycle. It is transient: logged and
// exported as metrics, never persisted as a first-class entity.
type CycleReport struct {
	CycleID    string        `json:"cycle_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Eligible   int           `json:"eligible"`
	Checked    int           `json:"checked"`
	Changed    int           `json:"changed"`
	Errored    int           `json:"errored"`
}

// WorkerStatus describes the monitoring worker's run state.
type WorkerStatus struct {
	IsRunning       bool       `json:"is_running"`
	Schedule        string     `json:"schedule"`
	NextRunEstimate *time.Time `json:"next_run_estimate,omitempty"`
}
