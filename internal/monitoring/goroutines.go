// Package monitoring samples process health for the simulation host:
// goroutine counts plus gauges reported by components (hosted games,
// update subscribers).
package monitoring

import (
	"maps"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultInterval       = 30 * time.Second
	defaultAlertThreshold = 1000
	alertCooldown         = 5 * time.Minute
)

// Options tune a Monitor. Zero values select the defaults.
type Options struct {
	Interval       time.Duration
	AlertThreshold int
}

// Monitor tracks goroutine counts and component gauges.
type Monitor struct {
	mu             sync.RWMutex
	logger         zerolog.Logger
	interval       time.Duration
	alertThreshold int
	baseline       int
	current        int
	peak           int
	lastAlert      time.Time
	gauges         map[string]int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMonitor records the current goroutine count as the baseline.
func NewMonitor(opts Options, logger zerolog.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.AlertThreshold <= 0 {
		opts.AlertThreshold = defaultAlertThreshold
	}
	baseline := runtime.NumGoroutine()
	return &Monitor{
		logger:         logger.With().Str("component", "Monitor").Logger(),
		interval:       opts.Interval,
		alertThreshold: opts.AlertThreshold,
		baseline:       baseline,
		current:        baseline,
		peak:           baseline,
		gauges:         make(map[string]int),
		stop:           make(chan struct{}),
	}
}

// Start samples in the background until Stop.
func (m *Monitor) Start() {
	go m.loop()
	m.logger.Info().
		Int("baseline", m.baseline).
		Dur("interval", m.interval).
		Msg("Started goroutine monitoring")
}

// Stop is idempotent.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sample()
		case <-m.stop:
			return
		}
	}
}

// Sample takes one reading and warns when the count crosses the alert
// threshold, at most once per cooldown.
func (m *Monitor) Sample() Metrics {
	current := runtime.NumGoroutine()

	m.mu.Lock()
	m.current = current
	m.peak = max(m.peak, current)
	shouldAlert := current > m.alertThreshold && time.Since(m.lastAlert) > alertCooldown
	if shouldAlert {
		m.lastAlert = time.Now()
	}
	metrics := m.metricsLocked()
	m.mu.Unlock()

	ev := m.logger.Debug()
	if shouldAlert {
		ev = m.logger.Warn().Int("threshold", m.alertThreshold)
	}
	ev.Int("current", metrics.Current).
		Int("baseline", metrics.Baseline).
		Int("peak", metrics.Peak).
		Interface("gauges", metrics.Gauges).
		Msg("Goroutine metrics")
	return metrics
}

// SetGauge records the latest value reported by a component.
func (m *Monitor) SetGauge(name string, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// Metrics returns the last sample.
func (m *Monitor) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metricsLocked()
}

func (m *Monitor) metricsLocked() Metrics {
	return Metrics{
		Current:  m.current,
		Baseline: m.baseline,
		Peak:     m.peak,
		Growth:   m.current - m.baseline,
		Gauges:   maps.Clone(m.gauges),
	}
}

// Metrics is one snapshot of the monitor.
type Metrics struct {
	Current  int            `json:"current"`
	Baseline int            `json:"baseline"`
	Peak     int            `json:"peak"`
	Growth   int            `json:"growth"`
	Gauges   map[string]int `json:"gauges"`
}
