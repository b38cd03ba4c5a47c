package simserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/archive"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/desync"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/mapgen"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/monitoring"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/runtime"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/view"
)

// ServerClientID is the client id under which the host votes its own
// hashes into the desync detector.
const ServerClientID = "server"

const (
	cleanupInterval  = 30 * time.Second
	failedGameTTL    = time.Minute
	subscriberBuffer = 64
)

type subscriber struct {
	updates chan *protocol.GameUpdateViewData
	// err is written before updates is closed.
	err error
}

type gameInstance struct {
	id     string
	client *runtime.Client
	logger zerolog.Logger

	// turnMu serializes submissions; it is never held while mu is wanted
	// by the pump.
	turnMu   sync.Mutex
	nextTurn int

	mu           sync.Mutex
	view         *view.GameView
	subscribers  map[int]*subscriber
	nextSubID    int
	createdAt    time.Time
	lastActivity time.Time
	stopped      bool

	done chan struct{}
}

func (g *gameInstance) touch() {
	g.mu.Lock()
	g.lastActivity = time.Now()
	g.mu.Unlock()
}

// subscribe returns the current state of the game and a channel carrying
// every later diff.
func (g *gameInstance) subscribe() (*protocol.GameUpdateViewData, int, *subscriber, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		if err := g.client.Err(); err != nil {
			return nil, 0, nil, err
		}
		return nil, 0, nil, runtime.ErrClosed
	}
	g.nextSubID++
	sub := &subscriber{updates: make(chan *protocol.GameUpdateViewData, subscriberBuffer)}
	g.subscribers[g.nextSubID] = sub
	g.lastActivity = time.Now()
	return g.view.Snapshot(), g.nextSubID, sub, nil
}

func (g *gameInstance) unsubscribe(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sub, ok := g.subscribers[id]; ok {
		delete(g.subscribers, id)
		close(sub.updates)
	}
}

func (g *gameInstance) subscriberCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subscribers)
}

// Options configures a GameManager.
type Options struct {
	Server  config.ServerConfig
	Runtime config.RuntimeConfig
	// Archive is optional.
	Archive *archive.Archive
	// Monitor is optional.
	Monitor *monitoring.Monitor
	Logger  zerolog.Logger
}

// GameManager hosts one runtime per game and fans its updates out to
// stream subscribers.
type GameManager struct {
	mu          sync.RWMutex
	games       map[string]*gameInstance
	maxGames    int
	idleTimeout time.Duration
	closed      bool

	runtimeCfg config.RuntimeConfig
	archive    *archive.Archive
	monitor    *monitoring.Monitor
	detector   *desync.Detector
	limiters   *limiterSet
	logger     zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewGameManager starts the idle cleanup loop.
func NewGameManager(opts Options) *GameManager {
	logger := opts.Logger.With().Str("component", "GameManager").Logger()
	gm := &GameManager{
		games:       make(map[string]*gameInstance),
		maxGames:    opts.Server.MaxGames,
		idleTimeout: time.Duration(opts.Server.IdleTimeoutSeconds) * time.Second,
		runtimeCfg:  opts.Runtime,
		archive:     opts.Archive,
		monitor:     opts.Monitor,
		detector:    desync.NewDetector(opts.Server.HashWindow, opts.Logger),
		limiters:    newLimiterSet(opts.Server.TurnRateLimit, opts.Server.TurnBurst),
		logger:      logger,
		stop:        make(chan struct{}),
	}
	go gm.runCleanup()
	return gm
}

// ApplyConfig updates the settings that can change without a restart.
func (gm *GameManager) ApplyConfig(cfg config.ServerConfig) {
	gm.mu.Lock()
	gm.maxGames = cfg.MaxGames
	gm.idleTimeout = time.Duration(cfg.IdleTimeoutSeconds) * time.Second
	gm.mu.Unlock()
	gm.limiters.setRate(cfg.TurnRateLimit, cfg.TurnBurst)

	gm.logger.Info().
		Int("max_games", cfg.MaxGames).
		Int("idle_timeout_seconds", cfg.IdleTimeoutSeconds).
		Int("turn_rate_limit", cfg.TurnRateLimit).
		Msg("Server settings reloaded")
}

// CreateGame starts a runtime for req and waits for its initial snapshot.
// Terrain is generated here when the request carries none, so the host
// view and the archive always hold the exact map.
func (gm *GameManager) CreateGame(ctx context.Context, req CreateGameRequest) (string, *protocol.GameUpdateViewData, error) {
	gameID := req.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}

	gm.mu.RLock()
	current, maxGames, closed := len(gm.games), gm.maxGames, gm.closed
	_, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if closed {
		return "", nil, ErrManagerShutdown
	}
	if exists {
		return "", nil, fmt.Errorf("%w: %s", ErrGameExists, gameID)
	}
	if maxGames > 0 && current >= maxGames {
		gm.logger.Warn().
			Int("current_games", current).
			Int("max_games", maxGames).
			Msg("Rejecting game creation - server at capacity")
		return "", nil, fmt.Errorf("%w: %d/%d games active", ErrAtCapacity, current, maxGames)
	}

	terrain := req.Terrain
	if terrain == nil {
		m, err := mapgen.NewGenerator(req.Map).Generate()
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		terrain = runtime.TerrainOf(m)
	}
	terrainMap, err := terrain.GameMap()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	initReq := runtime.InitRequest{GameID: gameID, Game: req.Game, Map: req.Map, Terrain: terrain}

	logger := gm.logger.With().Str("game_id", gameID).Logger()
	client := runtime.NewClient(gm.runtimeCfg, logger)
	snapshot, err := client.Init(ctx, initReq)
	if err != nil {
		client.Close()
		return "", nil, err
	}

	v := view.NewGameView(terrainMap, logger)
	if err := v.Load(snapshot); err != nil {
		client.Close()
		return "", nil, fmt.Errorf("load initial snapshot: %w", err)
	}

	if gm.archive != nil {
		if err := gm.archive.CreateGame(ctx, initReq); err != nil {
			client.Close()
			return "", nil, err
		}
	}

	now := time.Now()
	g := &gameInstance{
		id:           gameID,
		client:       client,
		logger:       logger,
		view:         v,
		subscribers:  make(map[int]*subscriber),
		createdAt:    now,
		lastActivity: now,
		done:         make(chan struct{}),
	}

	gm.mu.Lock()
	if _, exists := gm.games[gameID]; exists || gm.closed {
		gm.mu.Unlock()
		client.Close()
		if exists {
			return "", nil, fmt.Errorf("%w: %s", ErrGameExists, gameID)
		}
		return "", nil, ErrManagerShutdown
	}
	gm.games[gameID] = g
	count := len(gm.games)
	gm.mu.Unlock()

	go gm.pump(g)
	gm.setGauge("games", count)

	logger.Info().
		Int("width", terrainMap.Width()).
		Int("height", terrainMap.Height()).
		Int("bots", req.Game.NumBots).
		Bool("archived", gm.archive != nil).
		Msg("Created hosted game")
	return gameID, snapshot, nil
}

// GetGame returns a hosted game.
func (gm *GameManager) GetGame(gameID string) (*gameInstance, bool) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	g, ok := gm.games[gameID]
	return g, ok
}

// GetActiveGames returns the number of hosted games.
func (gm *GameManager) GetActiveGames() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

func (gm *GameManager) lookup(gameID string) (*gameInstance, error) {
	g, ok := gm.GetGame(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g, nil
}

// SubmitTurn forwards turn to the game's runtime. Only the next
// consecutive turn number is accepted; ordering is the caller's job.
func (gm *GameManager) SubmitTurn(ctx context.Context, req SubmitTurnRequest) (int, error) {
	g, err := gm.lookup(req.GameID)
	if err != nil {
		return 0, err
	}
	if !gm.limiters.allow(limiterKey("turn", req.GameID, req.ClientID)) {
		return 0, fmt.Errorf("%w: client %s", ErrRateLimited, req.ClientID)
	}

	g.turnMu.Lock()
	defer g.turnMu.Unlock()
	if req.Turn.TurnNumber != g.nextTurn {
		return g.nextTurn, fmt.Errorf("%w: got %d, want %d", ErrTurnOutOfOrder, req.Turn.TurnNumber, g.nextTurn)
	}
	if err := g.client.SendTurn(ctx, req.Turn); err != nil {
		return g.nextTurn, err
	}
	if gm.archive != nil {
		if err := gm.archive.RecordTurn(ctx, g.id, req.Turn); err != nil {
			g.logger.Error().Err(err).Int("turn", req.Turn.TurnNumber).Msg("Failed to archive turn")
		}
	}
	g.nextTurn++
	g.touch()
	return g.nextTurn, nil
}

// Query runs a read-only query against the game's runtime.
func (gm *GameManager) Query(ctx context.Context, req QueryRequest) (*runtime.QueryResult, error) {
	g, err := gm.lookup(req.GameID)
	if err != nil {
		return nil, err
	}
	g.touch()
	return g.client.Query(ctx, req.Query)
}

// ReportHash records a client's hash for a tick. Games need not be
// hosted here; the detector only compares what clients report.
func (gm *GameManager) ReportHash(req ReportHashRequest) (*desync.Report, error) {
	if req.GameID == "" || req.ClientID == "" {
		return nil, fmt.Errorf("%w: game and client ids are required", ErrInvalidRequest)
	}
	if req.ClientID == ServerClientID {
		return nil, fmt.Errorf("%w: client id %q is reserved", ErrInvalidRequest, ServerClientID)
	}
	if !gm.limiters.allow(limiterKey("hash", req.GameID, req.ClientID)) {
		return nil, fmt.Errorf("%w: client %s", ErrRateLimited, req.ClientID)
	}
	if g, ok := gm.GetGame(req.GameID); ok {
		g.touch()
	}
	return gm.detector.Record(req.GameID, req.ClientID, req.Tick, req.Hash), nil
}

// Subscribe registers a stream subscriber for a game.
func (gm *GameManager) Subscribe(gameID string) (*protocol.GameUpdateViewData, <-chan *protocol.GameUpdateViewData, func() error, error) {
	g, err := gm.lookup(gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	snapshot, id, sub, err := g.subscribe()
	if err != nil {
		return nil, nil, nil, err
	}
	gm.setGauge("subscribers", gm.subscriberCount())
	cancel := func() error {
		g.unsubscribe(id)
		gm.setGauge("subscribers", gm.subscriberCount())
		return sub.err
	}
	return snapshot, sub.updates, cancel, nil
}

// pump applies every update of a game to the host view, records its hash
// and fans it out. It stops when the runtime is closed or fails.
func (gm *GameManager) pump(g *gameInstance) {
	defer close(g.done)

	updates := g.client.Updates()
loop:
	for {
		select {
		case gu, ok := <-updates:
			if !ok {
				break loop
			}
			gm.deliver(g, gu)
		case <-g.client.Failed():
			// updates produced before the failure are still delivered
			for {
				select {
				case gu, ok := <-updates:
					if !ok {
						break loop
					}
					gm.deliver(g, gu)
				default:
					break loop
				}
			}
		}
	}

	g.mu.Lock()
	g.stopped = true
	g.lastActivity = time.Now()
	err := g.client.Err()
	for id, sub := range g.subscribers {
		sub.err = err
		close(sub.updates)
		delete(g.subscribers, id)
	}
	g.mu.Unlock()
	if err != nil {
		g.logger.Error().Err(err).Msg("Hosted simulation failed")
	}
}

// deliver disconnects a subscriber that cannot keep up, since a skipped
// diff would corrupt its state.
func (gm *GameManager) deliver(g *gameInstance, gu *protocol.GameUpdateViewData) {
	g.mu.Lock()
	if err := g.view.Update(gu); err != nil {
		g.logger.Error().Err(err).Int("tick", gu.Tick).Msg("Host view rejected update")
	}
	for id, sub := range g.subscribers {
		select {
		case sub.updates <- gu:
		default:
			sub.err = ErrSubscriberSlow
			close(sub.updates)
			delete(g.subscribers, id)
			g.logger.Warn().Int("subscriber", id).Int("tick", gu.Tick).Msg("Disconnected slow subscriber")
		}
	}
	g.mu.Unlock()

	h, ok := gu.LastHash()
	if !ok {
		return
	}
	if report := gm.detector.Record(g.id, ServerClientID, h.Tick, h.Hash); report != nil {
		g.logger.Warn().Int("tick", h.Tick).Strs("diverged", report.Diverged).Msg("Hash mismatch against host")
	}
	if gm.archive != nil {
		if err := gm.archive.RecordHash(context.Background(), g.id, h.Tick, h.Hash); err != nil {
			g.logger.Error().Err(err).Int("tick", h.Tick).Msg("Failed to archive hash")
		}
	}
}

func (gm *GameManager) runCleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			gm.cleanupGames(now)
		case <-gm.stop:
			return
		}
	}
}

// cleanupGames removes games idle for longer than the idle timeout and
// failed games after a short grace period.
func (gm *GameManager) cleanupGames(now time.Time) int {
	gm.mu.RLock()
	idleTimeout := gm.idleTimeout
	refs := make([]*gameInstance, 0, len(gm.games))
	for _, g := range gm.games {
		refs = append(refs, g)
	}
	gm.mu.RUnlock()

	var toDelete []*gameInstance
	for _, g := range refs {
		g.mu.Lock()
		idle := now.Sub(g.lastActivity)
		stopped := g.stopped
		g.mu.Unlock()

		switch {
		case stopped && idle > failedGameTTL:
			toDelete = append(toDelete, g)
		case idleTimeout > 0 && idle > idleTimeout:
			toDelete = append(toDelete, g)
		}
	}

	for _, g := range toDelete {
		gm.removeGame(g, "idle")
	}
	if len(toDelete) > 0 {
		gm.logger.Info().
			Int("cleaned_games", len(toDelete)).
			Int("remaining_games", gm.GetActiveGames()).
			Msg("Game cleanup completed")
	}
	return len(toDelete)
}

func (gm *GameManager) removeGame(g *gameInstance, reason string) {
	gm.mu.Lock()
	if gm.games[g.id] == g {
		delete(gm.games, g.id)
	}
	count := len(gm.games)
	gm.mu.Unlock()

	g.client.Close()
	<-g.done
	gm.detector.Forget(g.id)
	gm.limiters.forget(g.id)
	gm.setGauge("games", count)
	gm.setGauge("subscribers", gm.subscriberCount())

	g.logger.Info().
		Str("reason", reason).
		Dur("age", time.Since(g.createdAt)).
		Msg("Removed hosted game")
}

// RemoveGame stops and forgets a hosted game.
func (gm *GameManager) RemoveGame(gameID string) error {
	g, err := gm.lookup(gameID)
	if err != nil {
		return err
	}
	gm.removeGame(g, "removed")
	return nil
}

// Close stops every hosted game. The manager rejects new games afterwards.
func (gm *GameManager) Close() {
	gm.stopOnce.Do(func() { close(gm.stop) })

	gm.mu.Lock()
	gm.closed = true
	refs := make([]*gameInstance, 0, len(gm.games))
	for _, g := range gm.games {
		refs = append(refs, g)
	}
	gm.mu.Unlock()

	for _, g := range refs {
		gm.removeGame(g, "shutdown")
	}
}

func (gm *GameManager) subscriberCount() int {
	gm.mu.RLock()
	refs := make([]*gameInstance, 0, len(gm.games))
	for _, g := range gm.games {
		refs = append(refs, g)
	}
	gm.mu.RUnlock()

	n := 0
	for _, g := range refs {
		n += g.subscriberCount()
	}
	return n
}

func (gm *GameManager) setGauge(name string, value int) {
	if gm.monitor != nil {
		gm.monitor.SetGauge(name, value)
	}
}
