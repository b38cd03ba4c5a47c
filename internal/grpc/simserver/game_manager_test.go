package simserver

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/monitoring"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

func newTestManager(t *testing.T, opts Options) *GameManager {
	gm := NewGameManager(opts)
	t.Cleanup(gm.Close)
	return gm
}

func TestGameManager_CleanupIdleGames(t *testing.T) {
	gm := newTestManager(t, testOptions())
	ctx := ctxWithTimeout(t)

	_, _, err := gm.CreateGame(ctx, testCreateRequest(t, "idle"))
	require.NoError(t, err)
	_, _, err = gm.CreateGame(ctx, testCreateRequest(t, "busy"))
	require.NoError(t, err)

	assert.Zero(t, gm.cleanupGames(time.Now()))

	busy, _ := gm.GetGame("busy")
	later := time.Now().Add(2 * time.Minute)
	busy.mu.Lock()
	busy.lastActivity = later
	busy.mu.Unlock()

	assert.Equal(t, 1, gm.cleanupGames(later))
	_, ok := gm.GetGame("idle")
	assert.False(t, ok)
	_, ok = gm.GetGame("busy")
	assert.True(t, ok)
}

func TestGameManager_CleanupFailedGames(t *testing.T) {
	opts := testOptions()
	opts.Server.IdleTimeoutSeconds = 0
	gm := newTestManager(t, opts)
	ctx := ctxWithTimeout(t)

	_, _, err := gm.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)
	g, _ := gm.GetGame("g1")

	// bypass the ordering check to make the runtime fail on a turn mismatch
	require.NoError(t, g.client.SendTurn(ctx, protocol.EmptyTurn(3)))
	select {
	case <-g.done:
	case <-time.After(testTimeout):
		t.Fatal("pump did not stop after failure")
	}
	require.Error(t, g.client.Err())

	_, _, _, err = gm.Subscribe("g1")
	assert.Error(t, err)

	assert.Zero(t, gm.cleanupGames(time.Now()), "idle timeout disabled, failure still fresh")
	assert.Equal(t, 1, gm.cleanupGames(time.Now().Add(2*failedGameTTL)))
	assert.Zero(t, gm.GetActiveGames())
}

func TestGameManager_SlowSubscriberDisconnected(t *testing.T) {
	gm := newTestManager(t, testOptions())
	ctx := ctxWithTimeout(t)
	_, _, err := gm.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)

	_, updates, cancel, err := gm.Subscribe("g1")
	require.NoError(t, err)

	for i := 0; i <= subscriberBuffer; i++ {
		_, err := gm.SubmitTurn(ctx, SubmitTurnRequest{GameID: "g1", ClientID: "a", Turn: protocol.EmptyTurn(i)})
		require.NoError(t, err)
	}

	// nothing reads the channel until the host has applied every diff
	g, _ := gm.GetGame("g1")
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.view.Tick() > subscriberBuffer
	}, testTimeout, 10*time.Millisecond)
	assert.Zero(t, g.subscriberCount())

	received := 0
	deadline := time.After(testTimeout)
	for open := true; open; {
		select {
		case _, open = <-updates:
			if open {
				received++
			}
		case <-deadline:
			t.Fatal("subscriber was not disconnected")
		}
	}
	assert.Equal(t, subscriberBuffer, received)
	assert.ErrorIs(t, cancel(), ErrSubscriberSlow)
}

func TestGameManager_MonitorGauges(t *testing.T) {
	opts := testOptions()
	opts.Monitor = monitoring.NewMonitor(monitoring.Options{}, zerolog.Nop())
	gm := newTestManager(t, opts)
	ctx := context.Background()

	_, _, err := gm.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)
	_, _, cancel, err := gm.Subscribe("g1")
	require.NoError(t, err)

	gauges := opts.Monitor.Metrics().Gauges
	assert.Equal(t, 1, gauges["games"])
	assert.Equal(t, 1, gauges["subscribers"])

	require.NoError(t, cancel())
	require.NoError(t, gm.RemoveGame("g1"))
	gauges = opts.Monitor.Metrics().Gauges
	assert.Zero(t, gauges["games"])
	assert.Zero(t, gauges["subscribers"])
}

func TestGameManager_CloseRejectsNewGames(t *testing.T) {
	gm := NewGameManager(testOptions())
	ctx := ctxWithTimeout(t)
	_, _, err := gm.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)

	gm.Close()
	assert.Zero(t, gm.GetActiveGames())
	_, _, err = gm.CreateGame(ctx, testCreateRequest(t, "g2"))
	assert.ErrorIs(t, err, ErrManagerShutdown)
}

func TestLimiterSet(t *testing.T) {
	s := newLimiterSet(1, 2)
	key := limiterKey("turn", "g1", "a")
	assert.True(t, s.allow(key))
	assert.True(t, s.allow(key))
	assert.False(t, s.allow(key))
	assert.True(t, s.allow(limiterKey("turn", "g1", "b")))
	assert.True(t, s.allow(limiterKey("turn", "g2", "a")))

	s.forget("g1")
	assert.Equal(t, 1, s.size())

	s.setRate(0, 0)
	for i := 0; i < 10; i++ {
		assert.True(t, s.allow(key))
	}
}
