package events

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

type funcHandler struct {
	id      string
	handler EventHandler
}

// EventBus is a synchronous event bus. Subscribers and handlers are notified
// in the order they were registered.
type EventBus struct {
	subscribers  []Subscriber
	funcHandlers map[string][]funcHandler
	nextHandler  int
	mu           sync.RWMutex
	logger       zerolog.Logger
}

// NewEventBus creates a new event bus instance
func NewEventBus() *EventBus {
	return NewEventBusWithLogger(log.Logger)
}

// NewEventBusWithLogger creates an event bus that logs through logger.
func NewEventBusWithLogger(logger zerolog.Logger) *EventBus {
	return &EventBus{
		funcHandlers: make(map[string][]funcHandler),
		logger:       logger.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe adds a new subscriber to the event bus. Subscribing an ID twice
// replaces the earlier subscriber in place.
func (eb *EventBus) Subscribe(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for i, s := range eb.subscribers {
		if s.ID() == subscriber.ID() {
			eb.subscribers[i] = subscriber
			return
		}
	}
	eb.subscribers = append(eb.subscribers, subscriber)
	eb.logger.Debug().
		Str("subscriber_id", subscriber.ID()).
		Msg("Subscriber added to event bus")
}

// Unsubscribe removes a subscriber or function handler from the event bus
func (eb *EventBus) Unsubscribe(subscriberID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for i, s := range eb.subscribers {
		if s.ID() == subscriberID {
			next := make([]Subscriber, 0, len(eb.subscribers)-1)
			next = append(next, eb.subscribers[:i]...)
			eb.subscribers = append(next, eb.subscribers[i+1:]...)
			eb.logger.Debug().
				Str("subscriber_id", subscriberID).
				Msg("Subscriber removed from event bus")
			return
		}
	}
	for eventType, handlers := range eb.funcHandlers {
		for i, h := range handlers {
			if h.id == subscriberID {
				next := make([]funcHandler, 0, len(handlers)-1)
				next = append(next, handlers[:i]...)
				eb.funcHandlers[eventType] = append(next, handlers[i+1:]...)
				return
			}
		}
	}
}

// SubscribeFunc adds a function handler for specific event types
func (eb *EventBus) SubscribeFunc(eventType string, handler EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextHandler++
	handlerID := fmt.Sprintf("%s_func_%d", eventType, eb.nextHandler)
	eb.funcHandlers[eventType] = append(eb.funcHandlers[eventType], funcHandler{id: handlerID, handler: handler})
	eb.logger.Debug().
		Str("event_type", eventType).
		Str("handler_id", handlerID).
		Msg("Function handler added to event bus")

	return handlerID
}

// Publish sends an event to all interested subscribers synchronously.
// A panicking subscriber is logged and skipped, unless it panicked with a
// *core.FatalError, which is re-raised to the publisher.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	subscribers := eb.subscribers
	handlers := eb.funcHandlers[event.Type()]
	eb.mu.RUnlock()

	eventType := event.Type()

	if e := eb.logger.Trace(); e.Enabled() {
		e.Str("event_type", eventType).
			Str("game_id", event.GameID()).
			Int("tick", event.Tick()).
			Msg("Publishing event")
	}

	for _, subscriber := range subscribers {
		if subscriber.InterestedIn(eventType) {
			eb.dispatch(subscriber.ID(), event, subscriber.HandleEvent)
		}
	}

	for _, h := range handlers {
		eb.dispatch(h.id, event, h.handler)
	}
}

func (eb *EventBus) dispatch(id string, event Event, handle EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := core.AsFatal(r); ok {
				panic(fe)
			}
			eb.logger.Error().
				Str("subscriber_id", id).
				Str("event_type", event.Type()).
				Interface("panic", r).
				Msg("Subscriber panicked while handling event")
		}
	}()
	handle(event)
}

// GetSubscriberCount returns the number of subscribers for debugging
func (eb *EventBus) GetSubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// GetFuncHandlerCount returns the number of function handlers for a specific event type
func (eb *EventBus) GetFuncHandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.funcHandlers[eventType])
}
