package scannermodule

import (
	"context"
	"sync"
	"time"

	"github.com/mantonx/vidvault/internal/logger"
	"github.com/shirou/gopsutil/v4/cpu"
)

// SystemMonitor samples CPU load so scans can back off when the host is
// busy. Samples are cached briefly; a scan pacing check must not itself
// become a load source.
type SystemMonitor struct {
	threshold float64
	delay     time.Duration

	mu        sync.Mutex
	lastUsage float64
	sampledAt time.Time
}

// NewSystemMonitor creates a monitor that throttles when CPU usage
// exceeds threshold percent.
func NewSystemMonitor(threshold float64, delay time.Duration) *SystemMonitor {
	if threshold <= 0 {
		threshold = 85.0
	}
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	return &SystemMonitor{threshold: threshold, delay: delay}
}

// CPUUsage returns the current overall CPU usage percentage.
func (m *SystemMonitor) CPUUsage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.sampledAt) < 2*time.Second {
		return m.lastUsage
	}

	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		return m.lastUsage
	}
	m.lastUsage = percentages[0]
	m.sampledAt = time.Now()
	return m.lastUsage
}

// Pace blocks briefly when the system is under load. It is safe to call
// between every file of a scan.
func (m *SystemMonitor) Pace(ctx context.Context) {
	usage := m.CPUUsage()
	if usage < m.threshold {
		return
	}

	logger.Debug("Throttling scan: CPU at %.1f%% (threshold %.1f%%)", usage, m.threshold)
	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
	}
}
