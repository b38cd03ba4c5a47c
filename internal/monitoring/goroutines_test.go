package monitoring

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestMonitor_SampleTracksPeak(t *testing.T) {
	m := NewMonitor(Options{}, zerolog.Nop())

	release := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() { <-release }()
	}
	during := m.Sample()
	close(release)

	assert.GreaterOrEqual(t, during.Current, during.Baseline+10)
	assert.Equal(t, during.Current, during.Peak)

	assert.Eventually(t, func() bool {
		return m.Sample().Current < during.Peak
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, during.Peak, m.Metrics().Peak)
}

func TestMonitor_Gauges(t *testing.T) {
	m := NewMonitor(Options{}, zerolog.Nop())
	m.SetGauge("games", 3)
	m.SetGauge("games", 2)
	m.SetGauge("subscribers", 5)

	metrics := m.Metrics()
	assert.Equal(t, map[string]int{"games": 2, "subscribers": 5}, metrics.Gauges)

	metrics.Gauges["games"] = 100
	assert.Equal(t, 2, m.Metrics().Gauges["games"], "metrics are a copy")
}

func TestMonitor_StartStop(t *testing.T) {
	m := NewMonitor(Options{Interval: time.Millisecond}, zerolog.Nop())
	m.Start()
	m.Stop()
	m.Stop()
}
