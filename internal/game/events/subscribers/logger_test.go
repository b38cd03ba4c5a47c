package subscribers_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events/subscribers"
)

func TestLoggerSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("test-logger", logger, zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())
	assert.True(t, logSub.InterestedIn(events.TypeTileChanged))
	assert.True(t, logSub.InterestedIn("any.event.type"))
}

func TestLoggerSubscriberEventLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("event-logger", logger, zerolog.InfoLevel)

	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, logLine map[string]interface{})
	}{
		{
			name:  "AllianceBrokenEvent",
			event: events.NewAllianceBrokenEvent("test-game-1", 40, 2, 3),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(2), logLine["traitor"])
				assert.Equal(t, float64(3), logLine["betrayed"])
			},
		},
		{
			name:  "PlayerWonEvent",
			event: events.NewPlayerWonEvent("test-game-1", 40, 5),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(5), logLine["winner"])
			},
		},
		{
			name:  "DisplayMessageEvent",
			event: events.NewDisplayMessageEvent("test-game-1", 40, "hello", "info", 0),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "hello", logLine["text"])
				assert.Equal(t, "info", logLine["message_type"])
			},
		},
		{
			name:  "StateTransitionEvent",
			event: events.NewStateTransitionEvent("test-game-1", 40, "Uninitialized", "Running", "initialized"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "Uninitialized", logLine["from"])
				assert.Equal(t, "Running", logLine["to"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			logSub.HandleEvent(tc.event)

			logOutput := buf.String()
			require.NotEmpty(t, logOutput, "Log output should not be empty")

			var logLine map[string]interface{}
			err := json.Unmarshal([]byte(logOutput), &logLine)
			require.NoError(t, err, "Should be able to parse log output as JSON")

			assert.Equal(t, "info", logLine["level"])
			assert.Equal(t, tc.event.Type(), logLine["event_type"])
			assert.Equal(t, "test-game-1", logLine["game_id"])
			assert.Equal(t, float64(40), logLine["tick"])

			tc.check(t, logLine)
		})
	}
}

func TestLoggerSubscriberWithFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("filtered-logger", logger, zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypePlayerWon, events.TypeAllianceBroken})

	assert.True(t, logSub.InterestedIn(events.TypePlayerWon))
	assert.True(t, logSub.InterestedIn(events.TypeAllianceBroken))
	assert.False(t, logSub.InterestedIn(events.TypeTileChanged))

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypeTileChanged))
}

func TestLoggerSubscriberDevMode(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("dev-logger", zerolog.New(&buf), zerolog.WarnLevel)
	logSub.SetDevMode(true)

	logSub.HandleEvent(events.NewTickHashedEvent("g", 7, 99))

	var logLine map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
	assert.Equal(t, "warn", logLine["level"])
	assert.Equal(t, float64(99), logLine["hash"])
	assert.Contains(t, logLine, "event_data")
}

func TestLoggerSubscriberOnBus(t *testing.T) {
	var buf bytes.Buffer
	bus := events.NewEventBusWithLogger(zerolog.Nop())
	logSub := subscribers.NewLoggerSubscriber("bus-logger", zerolog.New(&buf), zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypePlayerEliminated})
	bus.Subscribe(logSub)

	bus.Publish(events.NewTileChangedEvent("g", 1, 4))
	assert.Empty(t, buf.String())

	bus.Publish(events.NewPlayerEliminatedEvent("g", 2, 3))
	assert.Contains(t, buf.String(), `"player":3`)
}
