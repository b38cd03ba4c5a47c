package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/desync"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/view"
)

// MessageDesync is the display message type of a local desync notice.
const MessageDesync = "desync"

// HashReporter publishes the local tick hash and returns a report when other
// clients computed something different.
type HashReporter interface {
	ReportHash(ctx context.Context, gameID, clientID string, tick int, hash uint64) (*desync.Report, error)
}

// DetectorReporter reports into an in-process detector.
type DetectorReporter struct {
	Detector *desync.Detector
}

func (r DetectorReporter) ReportHash(_ context.Context, gameID, clientID string, tick int, hash uint64) (*desync.Report, error) {
	return r.Detector.Record(gameID, clientID, tick, hash), nil
}

// GameRunner is the interactive side of one game: it sequences incoming
// turns into the simulation, queues the diffs that come back and applies
// them to the view when asked, between frames.
type GameRunner struct {
	gameID   string
	clientID string
	client   *Client
	view     *view.GameView
	seq      *TurnSequencer
	reporter HashReporter
	logger   zerolog.Logger

	// sendMu spans sequencing and sending so released batches reach the
	// client in release order.
	sendMu sync.Mutex

	mu     sync.Mutex
	queue  []*protocol.GameUpdateViewData
	notify chan struct{}
	done   chan struct{}
}

// NewGameRunner creates a runner for a client that has been initialized at
// tick 0. reporter may be nil.
func NewGameRunner(gameID, clientID string, client *Client, v *view.GameView, reporter HashReporter, logger zerolog.Logger) *GameRunner {
	return &GameRunner{
		gameID:   gameID,
		clientID: clientID,
		client:   client,
		view:     v,
		seq:      NewTurnSequencer(0),
		reporter: reporter,
		logger:   logger.With().Str("component", "GameRunner").Str("game_id", gameID).Logger(),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start pumps diffs from the client into the pending queue until the client
// is closed.
func (r *GameRunner) Start() {
	go func() {
		defer close(r.done)
		for gu := range r.client.Updates() {
			r.mu.Lock()
			r.queue = append(r.queue, gu)
			r.mu.Unlock()
			select {
			case r.notify <- struct{}{}:
			default:
			}
		}
	}()
}

// AddTurn offers a turn from the transport. Turns are forwarded to the
// simulation only once every earlier turn has been. Safe for concurrent use.
func (r *GameRunner) AddTurn(ctx context.Context, turn protocol.Turn) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	released, ok := r.seq.Add(turn)
	if !ok {
		r.logger.Debug().Int("turn", turn.TurnNumber).Msg("Dropping stale or duplicate turn")
		return nil
	}
	return r.send(ctx, released)
}

// FillTo fills gaps below n with empty turns, for transports that gave up
// waiting on a missing turn.
func (r *GameRunner) FillTo(ctx context.Context, n int) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	return r.send(ctx, r.seq.FillTo(n))
}

func (r *GameRunner) send(ctx context.Context, turns []protocol.Turn) error {
	for _, turn := range turns {
		if err := r.client.SendTurn(ctx, turn); err != nil {
			return fmt.Errorf("send turn %d: %w", turn.TurnNumber, err)
		}
	}
	return nil
}

// NextTurn is the number of the next turn the runner will forward.
func (r *GameRunner) NextTurn() int {
	return r.seq.Next()
}

// Pending returns the number of diffs waiting to be applied.
func (r *GameRunner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// ApplyPendingUpdates applies every queued diff to the view and returns how
// many were applied. Hashes are forwarded to the reporter; a desync becomes
// a local display event.
func (r *GameRunner) ApplyPendingUpdates(ctx context.Context) (int, error) {
	r.mu.Lock()
	batch := r.queue
	r.queue = nil
	r.mu.Unlock()

	for i, gu := range batch {
		if err := r.view.Update(gu); err != nil {
			return i, err
		}
		r.reportHash(ctx, gu)
	}
	if len(batch) == 0 {
		if err := r.client.Err(); err != nil {
			return 0, err
		}
	}
	return len(batch), nil
}

func (r *GameRunner) reportHash(ctx context.Context, gu *protocol.GameUpdateViewData) {
	if r.reporter == nil {
		return
	}
	h, ok := gu.LastHash()
	if !ok {
		return
	}
	report, err := r.reporter.ReportHash(ctx, r.gameID, r.clientID, h.Tick, h.Hash)
	if err != nil {
		r.logger.Warn().Err(err).Int("tick", h.Tick).Msg("Hash report failed")
		return
	}
	if report == nil {
		return
	}
	msg := fmt.Sprintf("Desync detected at tick %d", report.Tick)
	if report.Includes(r.clientID) {
		msg += ": this client diverged"
	}
	r.view.AddDisplayEvent(protocol.DisplayEventUpdate{
		Message:     msg,
		MessageType: MessageDesync,
		Player:      core.NoOwner,
	})
}

// WaitForTick applies updates until the view reaches tick, the simulation
// fails or ctx ends.
func (r *GameRunner) WaitForTick(ctx context.Context, tick int) error {
	for {
		if _, err := r.ApplyPendingUpdates(ctx); err != nil {
			return err
		}
		if r.view.Tick() >= tick {
			return nil
		}
		select {
		case <-r.notify:
		case <-r.client.Failed():
			return r.client.Err()
		case <-r.done:
			if _, err := r.ApplyPendingUpdates(ctx); err != nil {
				return err
			}
			if r.view.Tick() >= tick {
				return nil
			}
			if err := r.client.Err(); err != nil {
				return err
			}
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
