package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextIntervalSteps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		departure time.Time
		want      time.Duration
	}{
		{"ten days out", now.Add(240 * time.Hour), IntervalMoreThan7Days},
		{"five days out", now.Add(120 * time.Hour), IntervalWithin7Days},
		{"two days out", now.Add(48 * time.Hour), IntervalWithin3Days},
		{"twelve hours out", now.Add(12 * time.Hour), IntervalWithin24Hours},
		{"four hours out", now.Add(4 * time.Hour), IntervalWithin6Hours},
		{"one hour out", now.Add(time.Hour), IntervalWithin2Hours},
		{"already departed", now.Add(-3 * time.Hour), IntervalWithin2Hours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NextInterval(tt.departure, now))
		})
	}
}

func TestNextIntervalMonotonic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// The interval must never grow as departure approaches.
	previous := time.Duration(1<<62 - 1)
	for hours := 400; hours >= -24; hours-- {
		departure := now.Add(time.Duration(hours) * time.Hour)
		interval := NextInterval(departure, now)
		require.LessOrEqual(t, interval, previous,
			"interval grew at %d hours before departure", hours)
		previous = interval
	}
}

func TestIsDueNeverChecked(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, IsDue(nil, now.Add(240*time.Hour), now))
}

func TestIsDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastChecked time.Time
		departure   time.Time
		want        bool
	}{
		{
			name:        "checked a minute ago, a week out",
			lastChecked: now.Add(-time.Minute),
			departure:   now.Add(240 * time.Hour),
			want:        false,
		},
		{
			name:        "checked seven hours ago, a week out",
			lastChecked: now.Add(-7 * time.Hour),
			departure:   now.Add(240 * time.Hour),
			want:        true,
		},
		{
			name:        "checked a minute ago, one hour out",
			lastChecked: now.Add(-time.Minute),
			departure:   now.Add(time.Hour),
			want:        false,
		},
		{
			name:        "checked six minutes ago, one hour out",
			lastChecked: now.Add(-6 * time.Minute),
			departure:   now.Add(time.Hour),
			want:        true,
		},
		{
			name:        "checked exactly one interval ago",
			lastChecked: now.Add(-IntervalWithin2Hours),
			departure:   now.Add(time.Hour),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lastChecked := tt.lastChecked
			require.Equal(t, tt.want, IsDue(&lastChecked, tt.departure, now))
		})
	}
}
