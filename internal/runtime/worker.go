package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events/subscribers"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/execution"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/states"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// lifecycleEvents are logged at info level by every worker.
var lifecycleEvents = []string{
	events.TypePlayerEliminated,
	events.TypeAllianceBroken,
	events.TypePlayerWon,
	events.TypeStateTransition,
}

// Worker owns one engine and applies the messages of its inbox strictly in
// arrival order. It is the only goroutine touching the engine.
type Worker struct {
	cfg    config.RuntimeConfig
	logger zerolog.Logger

	inbox  chan []byte
	outbox chan []byte

	bus      *events.EventBus
	eventLog *subscribers.LoggerSubscriber
	simCtx   *states.SimContext
	sm       *states.StateMachine

	engine    *game.Engine
	processor *game.TurnProcessor
	failure   *SimulationError
}

// NewWorker creates a worker. Run must be called to start it.
func NewWorker(cfg config.RuntimeConfig, logger zerolog.Logger) *Worker {
	logger = logger.With().Str("component", "SimWorker").Logger()
	bus := events.NewEventBusWithLogger(logger)
	eventLog := subscribers.NewLoggerSubscriber("sim_lifecycle", logger, zerolog.InfoLevel)
	eventLog.SetEventFilter(lifecycleEvents)
	eventLog.SetDevMode(cfg.EventDetails)
	bus.Subscribe(eventLog)

	simCtx := states.NewSimContext("", logger)
	return &Worker{
		cfg:      cfg,
		logger:   logger,
		inbox:    make(chan []byte, max(cfg.InboxCapacity, 1)),
		outbox:   make(chan []byte, max(cfg.OutboxCapacity, 1)),
		bus:      bus,
		eventLog: eventLog,
		simCtx:   simCtx,
		sm:       states.NewStateMachine(simCtx, bus),
	}
}

// Post encodes msg and queues it. It blocks while the inbox is full.
func (w *Worker) Post(ctx context.Context, msg Message) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case w.inbox <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outbox delivers encoded messages in the order they were produced. It is
// closed when Run returns.
func (w *Worker) Outbox() <-chan []byte {
	return w.outbox
}

// Phase returns the lifecycle phase of the simulation.
func (w *Worker) Phase() states.SimPhase {
	return w.sm.CurrentPhase()
}

// Run processes the inbox until ctx is cancelled. A turn being applied when
// ctx is cancelled is abandoned.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.outbox)
	defer func() {
		if err := w.sm.TransitionTo(states.PhaseClosed, "worker stopped"); err != nil {
			w.logger.Debug().Err(err).Msg("Close transition skipped")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-w.inbox:
			w.handle(ctx, data)
		}
	}
}

func (w *Worker) handle(ctx context.Context, data []byte) {
	var msg Message
	if err := protocol.Unmarshal(data, &msg); err != nil {
		w.fail(ctx, 0, "decode message", err)
		return
	}
	if w.sm.CurrentPhase().IsTerminal() {
		w.emit(ctx, Message{Type: MsgError, ID: msg.ID, Error: w.failure})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			if fe, ok := core.AsFatal(r); ok {
				w.fail(ctx, msg.ID, fe.Op, fe.Err)
				return
			}
			w.fail(ctx, msg.ID, "panic", fmt.Errorf("%v", r))
		}
	}()

	switch msg.Type {
	case MsgInit:
		w.handleInit(ctx, msg)
	case MsgTurn:
		w.handleTurn(ctx, msg)
	case MsgQuery:
		w.handleQuery(ctx, msg)
	default:
		w.requestError(ctx, msg.ID, string(msg.Type), ErrUnknownMessage)
	}
}

func (w *Worker) handleInit(ctx context.Context, msg Message) {
	if w.sm.CurrentPhase() != states.PhaseUninitialized {
		w.requestError(ctx, msg.ID, "init", ErrAlreadyInitialized)
		return
	}
	req := msg.Init
	if req == nil {
		core.Fatal("init", errors.New("missing init payload"))
	}

	w.simCtx.GameID = req.GameID
	w.logger = w.logger.With().Str("game_id", req.GameID).Logger()

	setup := game.EngineSetup{
		GameID: req.GameID,
		Game:   req.Game,
		Map:    req.Map,
		Logger: w.logger,
	}
	if req.Terrain != nil {
		m, err := req.Terrain.GameMap()
		if err != nil {
			core.Fatal("init terrain", err)
		}
		setup.Terrain = m
	}
	engine, err := game.NewEngineInitializer(setup).Initialize(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		core.Fatal("init engine", err)
	}

	manager := execution.NewManager(req.GameID, req.Game, w.logger)
	engine.AddExecution(manager.InitialExecs(engine.Map())...)
	engine.Bus().Subscribe(w.eventLog)

	w.engine = engine
	w.processor = game.NewTurnProcessor(engine, manager)
	w.simCtx.Initialized = true
	if err := w.sm.TransitionTo(states.PhaseRunning, "engine initialized"); err != nil {
		core.Fatal("init", err)
	}

	w.logger.Info().
		Int("width", engine.Map().Width()).
		Int("height", engine.Map().Height()).
		Int("bots", req.Game.NumBots).
		Msg("Simulation initialized")
	w.emit(ctx, Message{Type: MsgInitialized, ID: msg.ID, Update: engine.Snapshot()})
}

func (w *Worker) handleTurn(ctx context.Context, msg Message) {
	if !w.sm.CurrentPhase().CanReceiveTurns() {
		core.Fatal("turn", ErrNotInitialized)
	}
	if msg.Turn == nil {
		core.Fatal("turn", errors.New("missing turn payload"))
	}

	gu, err := w.processor.ProcessTurn(ctx, *msg.Turn)
	if err != nil {
		// cancelled before anything was applied
		return
	}
	if interval := w.cfg.NameViewInterval; interval > 0 && gu.Tick%interval == 0 {
		gu.NameViewData = nameViewData(w.engine)
	}
	w.simCtx.Tick = gu.Tick
	w.emit(ctx, Message{Type: MsgGameUpdate, Update: gu})
}

func (w *Worker) handleQuery(ctx context.Context, msg Message) {
	if w.engine == nil {
		w.requestError(ctx, msg.ID, "query", ErrNotInitialized)
		return
	}
	if msg.Query == nil {
		w.requestError(ctx, msg.ID, "query", errors.New("missing query payload"))
		return
	}
	res, err := answerQuery(w.engine, *msg.Query)
	if err != nil {
		w.requestError(ctx, msg.ID, "query "+string(msg.Query.Type), err)
		return
	}
	w.emit(ctx, Message{Type: MsgQueryResult, ID: msg.ID, Result: res})
}

// fail moves the simulation to PhaseFailed. Every later message is answered
// with the same error.
func (w *Worker) fail(ctx context.Context, id uint64, op string, err error) {
	w.failure = &SimulationError{
		GameID:  w.simCtx.GameID,
		Tick:    w.simCtx.Tick,
		Op:      op,
		Message: err.Error(),
		Fatal:   true,
	}
	w.simCtx.Error = err
	if terr := w.sm.TransitionTo(states.PhaseFailed, op); terr != nil {
		w.logger.Error().Err(terr).Msg("Failed transition rejected")
	}
	w.logger.Error().Err(err).Str("op", op).Int("tick", w.simCtx.Tick).Msg("Simulation failed")
	w.emit(ctx, Message{Type: MsgError, ID: id, Error: w.failure})
}

func (w *Worker) requestError(ctx context.Context, id uint64, op string, err error) {
	w.logger.Warn().Err(err).Str("op", op).Msg("Request rejected")
	w.emit(ctx, Message{Type: MsgError, ID: id, Error: &SimulationError{
		GameID:  w.simCtx.GameID,
		Tick:    w.simCtx.Tick,
		Op:      op,
		Message: err.Error(),
	}})
}

func (w *Worker) emit(ctx context.Context, msg Message) {
	data, err := protocol.Marshal(msg)
	if err != nil {
		w.logger.Error().Err(err).Str("type", string(msg.Type)).Msg("Dropping unencodable message")
		return
	}
	select {
	case w.outbox <- data:
	case <-ctx.Done():
	}
}
