package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	logEvent := ls.logger.WithLevel(ls.logLevel).
		Str("event_type", event.Type()).
		Str("game_id", event.GameID()).
		Int("tick", event.Tick())

	switch e := event.(type) {
	case *events.PlayerEliminatedEvent:
		logEvent.Uint16("player", uint16(e.Player))

	case *events.AllianceFormedEvent:
		logEvent.
			Int("alliance_id", e.AllianceID).
			Uint16("requestor", uint16(e.Requestor)).
			Uint16("recipient", uint16(e.Recipient))

	case *events.AllianceBrokenEvent:
		logEvent.
			Uint16("traitor", uint16(e.Traitor)).
			Uint16("betrayed", uint16(e.Betrayed))

	case *events.AllianceExpiredEvent:
		logEvent.
			Uint16("player1", uint16(e.Player1)).
			Uint16("player2", uint16(e.Player2))

	case *events.DisplayMessageEvent:
		logEvent.
			Str("text", e.Message).
			Str("message_type", e.MessageType)

	case *events.PlayerWonEvent:
		logEvent.Uint16("winner", uint16(e.Winner))

	case *events.TickHashedEvent:
		logEvent.Uint64("hash", e.Hash)

	case *events.StateTransitionEvent:
		logEvent.
			Str("from", e.FromState).
			Str("to", e.ToState).
			Str("reason", e.Reason)
	}

	// In dev mode, also log the full event as JSON
	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Game event")
}
