package desync

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_AgreeingClients(t *testing.T) {
	d := NewDetector(10, zerolog.Nop())

	assert.Nil(t, d.Record("g", "a", 1, 42))
	assert.Nil(t, d.Record("g", "b", 1, 42))
	assert.Nil(t, d.Record("g", "c", 1, 42))
	assert.Nil(t, d.Record("other", "a", 1, 7), "games are compared independently")
}

func TestDetector_ReportsMismatch(t *testing.T) {
	d := NewDetector(10, zerolog.Nop())

	require.Nil(t, d.Record("g", "a", 5, 100))
	require.Nil(t, d.Record("g", "b", 5, 100))
	report := d.Record("g", "c", 5, 999)
	require.NotNil(t, report)

	assert.Equal(t, "g", report.GameID)
	assert.Equal(t, 5, report.Tick)
	assert.Equal(t, uint64(100), report.Majority)
	assert.Equal(t, []string{"c"}, report.Diverged)
	assert.True(t, report.Includes("c"))
	assert.False(t, report.Includes("a"))
	assert.Equal(t, []Vote{{"a", 100}, {"b", 100}, {"c", 999}}, report.Votes)
}

func TestDetector_TieGoesToSmallestHash(t *testing.T) {
	d := NewDetector(10, zerolog.Nop())

	require.Nil(t, d.Record("g", "a", 1, 20))
	report := d.Record("g", "b", 1, 10)
	require.NotNil(t, report)
	assert.Equal(t, uint64(10), report.Majority)
	assert.Equal(t, []string{"a"}, report.Diverged)
}

func TestDetector_Window(t *testing.T) {
	d := NewDetector(3, zerolog.Nop())

	for tick := 1; tick <= 10; tick++ {
		d.Record("g", "a", tick, uint64(tick))
	}
	assert.Equal(t, 3, d.NumTicks("g"))

	// tick 7 is outside the window of the latest tick 10
	assert.Nil(t, d.Record("g", "b", 7, 12345))
	assert.NotNil(t, d.Record("g", "b", 9, 12345))

	d.Forget("g")
	assert.Equal(t, 0, d.NumTicks("g"))
}

func TestDetector_Concurrent(t *testing.T) {
	d := NewDetector(50, zerolog.Nop())

	var wg sync.WaitGroup
	reports := make(chan *Report, 200)
	for _, client := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(client string) {
			defer wg.Done()
			for tick := 1; tick <= 40; tick++ {
				if r := d.Record("g", client, tick, uint64(tick*7)); r != nil {
					reports <- r
				}
			}
		}(client)
	}
	wg.Wait()
	close(reports)
	assert.Empty(t, reports)
}
