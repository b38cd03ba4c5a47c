package events

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBusWithLogger(zerolog.Nop())

	received := false
	var receivedEvent Event

	bus.SubscribeFunc(TypeTileChanged, func(e Event) {
		received = true
		receivedEvent = e
	})

	bus.Publish(NewTileChangedEvent("test-game", 4, core.TileRef(17)))

	assert.True(t, received, "Event handler should have been called")
	require.NotNil(t, receivedEvent)
	assert.Equal(t, TypeTileChanged, receivedEvent.Type())
	assert.Equal(t, "test-game", receivedEvent.GameID())
	assert.Equal(t, 4, receivedEvent.Tick())
	assert.Equal(t, core.TileRef(17), receivedEvent.(*TileChangedEvent).Tile)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBusWithLogger(zerolog.Nop())

	var order []int
	bus.SubscribeFunc(TypeUnitChanged, func(e Event) { order = append(order, 1) })
	bus.SubscribeFunc(TypeUnitChanged, func(e Event) { order = append(order, 2) })
	bus.SubscribeFunc(TypeUnitChanged, func(e Event) { order = append(order, 3) })

	bus.Publish(NewUnitChangedEvent("test-game", 1, 9))

	assert.Equal(t, []int{1, 2, 3}, order, "handlers run in registration order")
	assert.Equal(t, 3, bus.GetFuncHandlerCount(TypeUnitChanged))
}

// TestSubscriber is a test implementation of Subscriber
type TestSubscriber struct {
	id              string
	interestedTypes map[string]bool
	receivedEvents  []Event
	log             *[]string
}

func (ts *TestSubscriber) ID() string {
	return ts.id
}

func (ts *TestSubscriber) HandleEvent(e Event) {
	ts.receivedEvents = append(ts.receivedEvents, e)
	if ts.log != nil {
		*ts.log = append(*ts.log, ts.id)
	}
}

func (ts *TestSubscriber) InterestedIn(eventType string) bool {
	if ts.interestedTypes == nil {
		return true
	}
	return ts.interestedTypes[eventType]
}

func TestEventBusSubscriber(t *testing.T) {
	bus := NewEventBusWithLogger(zerolog.Nop())

	subscriber := &TestSubscriber{
		id: "test-subscriber",
		interestedTypes: map[string]bool{
			TypeAllianceFormed: true,
			TypePlayerWon:      true,
		},
	}

	bus.Subscribe(subscriber)

	bus.Publish(NewAllianceFormedEvent("test-game", 2, 1, 1, 2))
	bus.Publish(NewTileChangedEvent("test-game", 2, 5))
	bus.Publish(NewPlayerWonEvent("test-game", 3, 1))

	assert.Len(t, subscriber.receivedEvents, 2)
	assert.Equal(t, TypeAllianceFormed, subscriber.receivedEvents[0].Type())
	assert.Equal(t, TypePlayerWon, subscriber.receivedEvents[1].Type())

	bus.Unsubscribe(subscriber.ID())
	bus.Publish(NewPlayerWonEvent("test-game", 4, 1))

	assert.Len(t, subscriber.receivedEvents, 2)
	assert.Equal(t, 0, bus.GetSubscriberCount())
}

func TestEventBusSubscriberOrder(t *testing.T) {
	bus := NewEventBusWithLogger(zerolog.Nop())
	var calls []string

	for _, id := range []string{"c", "a", "b", "z", "m"} {
		bus.Subscribe(&TestSubscriber{id: id, log: &calls})
	}

	for i := 0; i < 5; i++ {
		calls = calls[:0]
		bus.Publish(NewPlayerChangedEvent("g", i, 1))
		assert.Equal(t, []string{"c", "a", "b", "z", "m"}, calls)
	}

	bus.Unsubscribe("b")
	calls = calls[:0]
	bus.Publish(NewPlayerChangedEvent("g", 6, 1))
	assert.Equal(t, []string{"c", "a", "z", "m"}, calls)
}

func TestEventBusRecoversSubscriberPanic(t *testing.T) {
	bus := NewEventBusWithLogger(zerolog.Nop())
	reached := false

	bus.SubscribeFunc(TypeEmoji, func(e Event) { panic("boom") })
	bus.SubscribeFunc(TypeEmoji, func(e Event) { reached = true })

	assert.NotPanics(t, func() {
		bus.Publish(NewEmojiEvent("g", 1, 1, core.NoOwner, "wave"))
	})
	assert.True(t, reached, "later handlers still run after a panic")
}

func TestEventBusPropagatesFatal(t *testing.T) {
	bus := NewEventBusWithLogger(zerolog.Nop())
	reached := false

	bus.SubscribeFunc(TypeTileChanged, func(e Event) {
		core.Fatal("collector", core.ErrOutOfBounds)
	})
	bus.SubscribeFunc(TypeTileChanged, func(e Event) { reached = true })

	defer func() {
		r := recover()
		fe, ok := core.AsFatal(r)
		require.True(t, ok, "fatal errors must reach the publisher")
		assert.True(t, errors.Is(fe, core.ErrOutOfBounds))
		assert.False(t, reached)
	}()
	bus.Publish(NewTileChangedEvent("g", 1, 3))
}

func TestEventBusUnsubscribeFunc(t *testing.T) {
	bus := NewEventBusWithLogger(zerolog.Nop())
	count := 0

	id := bus.SubscribeFunc(TypeTickHashed, func(e Event) { count++ })
	bus.Publish(NewTickHashedEvent("g", 1, 42))
	bus.Unsubscribe(id)
	bus.Publish(NewTickHashedEvent("g", 2, 43))

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.GetFuncHandlerCount(TypeTickHashed))
}
