package runtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// Client is the interactive side's handle on a simulation worker. Turns are
// fire-and-forget; their diffs arrive on Updates in tick order. Init and
// Query are request/response calls correlated by request id.
type Client struct {
	worker *Worker
	logger zerolog.Logger
	cancel context.CancelFunc

	updates chan *protocol.GameUpdateViewData
	stop    chan struct{}
	done    chan struct{}
	failed  chan struct{}
	nextID  atomic.Uint64

	mu        sync.Mutex
	pending   map[uint64]chan Message
	err       *SimulationError
	closeOnce sync.Once
}

// NewClient starts a worker goroutine and returns its client.
func NewClient(cfg config.RuntimeConfig, logger zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		worker:  NewWorker(cfg, logger),
		logger:  logger.With().Str("component", "SimClient").Logger(),
		cancel:  cancel,
		updates: make(chan *protocol.GameUpdateViewData, max(cfg.OutboxCapacity, 1)),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		failed:  make(chan struct{}),
		pending: make(map[uint64]chan Message),
	}
	go c.worker.Run(ctx)
	go c.readLoop()
	return c
}

// Init builds the simulation and returns the snapshot of tick 0.
func (c *Client) Init(ctx context.Context, req InitRequest) (*protocol.GameUpdateViewData, error) {
	reply, err := c.request(ctx, Message{Type: MsgInit, Init: &req})
	if err != nil {
		return nil, err
	}
	return reply.Update, nil
}

// SendTurn queues turn. Failures surface on later calls and through Err.
func (c *Client) SendTurn(ctx context.Context, turn protocol.Turn) error {
	if err := c.Err(); err != nil {
		return err
	}
	select {
	case <-c.stop:
		return ErrClosed
	default:
	}
	return c.worker.Post(ctx, Message{Type: MsgTurn, Turn: &turn})
}

// Updates delivers one diff per applied turn. It is closed when the client
// is closed.
func (c *Client) Updates() <-chan *protocol.GameUpdateViewData {
	return c.updates
}

// Query asks the simulation a read-only question. It is answered after every
// turn sent before it.
func (c *Client) Query(ctx context.Context, q Query) (*QueryResult, error) {
	reply, err := c.request(ctx, Message{Type: MsgQuery, Query: &q})
	if err != nil {
		return nil, err
	}
	return reply.Result, nil
}

// Err returns the terminal error of a failed simulation, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return nil
	}
	return c.err
}

// Failed is closed when the simulation hits a fatal error.
func (c *Client) Failed() <-chan struct{} {
	return c.failed
}

// Close stops the worker. A turn in flight is abandoned.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.cancel()
	})
	<-c.done
}

func (c *Client) request(ctx context.Context, msg Message) (Message, error) {
	msg.ID = c.nextID.Add(1)
	ch := make(chan Message, 1)

	c.mu.Lock()
	c.pending[msg.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
	}()

	if err := c.worker.Post(ctx, msg); err != nil {
		return Message{}, err
	}
	select {
	case reply := <-ch:
		if reply.Type == MsgError {
			if reply.Error == nil {
				return Message{}, ErrClosed
			}
			return Message{}, reply.Error
		}
		return reply, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-c.done:
		return Message{}, ErrClosed
	}
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.updates)

	for data := range c.worker.Outbox() {
		var msg Message
		if err := protocol.Unmarshal(data, &msg); err != nil {
			c.logger.Error().Err(err).Msg("Undecodable message from worker")
			continue
		}

		if msg.Type == MsgError && msg.Error != nil && msg.Error.Fatal {
			c.mu.Lock()
			if c.err == nil {
				c.err = msg.Error
				close(c.failed)
			}
			c.mu.Unlock()
		}

		if msg.Type == MsgGameUpdate {
			select {
			case c.updates <- msg.Update:
			case <-c.stop:
			}
			continue
		}

		if msg.ID == 0 {
			if msg.Type == MsgError {
				c.logger.Error().Err(msg.Error).Msg("Simulation error")
			}
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}
