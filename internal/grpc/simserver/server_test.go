package simserver

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/archive"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/runtime"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/view"
)

const (
	bufSize     = 1024 * 1024
	testTimeout = 5 * time.Second
)

func testOptions() Options {
	return Options{
		Server: config.ServerConfig{
			MaxGames:           4,
			IdleTimeoutSeconds: 60,
			TurnRateLimit:      1000,
			TurnBurst:          1000,
			HashWindow:         100,
		},
		Runtime: config.RuntimeConfig{InboxCapacity: 32, OutboxCapacity: 32, NameViewInterval: 5},
		Logger:  zerolog.Nop(),
	}
}

// setupTestServer creates an in-memory gRPC server for testing
func setupTestServer(t *testing.T, opts Options) (*Client, *GameManager) {
	lis := bufconn.Listen(bufSize)
	manager := NewGameManager(opts)
	s := grpc.NewServer(ServerOptions(zerolog.Nop())...)
	RegisterSimulationServer(s, NewServer(manager, zerolog.Nop()))

	go func() {
		if err := s.Serve(lis); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		s.Stop()
		manager.Close()
		lis.Close()
	})
	return NewClient(conn), manager
}

func testTerrain(t *testing.T, w, h int) *runtime.Terrain {
	terrain := make([]core.TerrainType, w*h)
	for i := range terrain {
		if i%w == 0 {
			terrain[i] = core.TerrainOcean
		}
	}
	m, err := core.NewGameMap(w, h, terrain)
	require.NoError(t, err)
	return runtime.TerrainOf(m)
}

func testCreateRequest(t *testing.T, gameID string) CreateGameRequest {
	cfg := config.DefaultGameConfig()
	cfg.SpawnPhaseTurns = 2
	cfg.SpawnRadius = 2
	cfg.NumBots = 0
	return CreateGameRequest{GameID: gameID, Game: cfg, Map: config.DefaultMapConfig(), Terrain: testTerrain(t, 20, 12)}
}

func ctxWithTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, code, st.Code(), st.Message())
}

func TestCreateGame(t *testing.T) {
	client, manager := setupTestServer(t, testOptions())
	ctx := ctxWithTimeout(t)

	resp, err := client.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)
	assert.Equal(t, "g1", resp.GameID)
	require.NotNil(t, resp.Snapshot)
	assert.Zero(t, resp.Snapshot.Tick)
	assert.Equal(t, 1, manager.GetActiveGames())

	_, err = client.CreateGame(ctx, testCreateRequest(t, "g1"))
	requireCode(t, err, codes.AlreadyExists)

	// generated id and terrain
	req := testCreateRequest(t, "")
	req.Terrain = nil
	req.Map.Width, req.Map.Height = 40, 30
	resp2, err := client.CreateGame(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp2.GameID)
	assert.NotEqual(t, "g1", resp2.GameID)

	bad := testCreateRequest(t, "bad")
	bad.Game.WinThresholdPercent = 0
	_, err = client.CreateGame(ctx, bad)
	requireCode(t, err, codes.FailedPrecondition)
	assert.Equal(t, 2, manager.GetActiveGames())
}

func TestMaxGamesLimit(t *testing.T) {
	opts := testOptions()
	opts.Server.MaxGames = 2
	client, manager := setupTestServer(t, opts)
	ctx := ctxWithTimeout(t)

	for _, id := range []string{"a", "b"} {
		_, err := client.CreateGame(ctx, testCreateRequest(t, id))
		require.NoError(t, err)
	}
	_, err := client.CreateGame(ctx, testCreateRequest(t, "c"))
	requireCode(t, err, codes.ResourceExhausted)
	assert.Equal(t, 2, manager.GetActiveGames())

	require.NoError(t, manager.RemoveGame("a"))
	_, err = client.CreateGame(ctx, testCreateRequest(t, "c"))
	require.NoError(t, err)
}

func TestSubmitTurn_Ordering(t *testing.T) {
	client, _ := setupTestServer(t, testOptions())
	ctx := ctxWithTimeout(t)
	_, err := client.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)

	_, err = client.SubmitTurn(ctx, "missing", "a", protocol.EmptyTurn(0))
	requireCode(t, err, codes.NotFound)

	_, err = client.SubmitTurn(ctx, "g1", "a", protocol.EmptyTurn(1))
	requireCode(t, err, codes.FailedPrecondition)

	next, err := client.SubmitTurn(ctx, "g1", "a", protocol.EmptyTurn(0))
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	_, err = client.SubmitTurn(ctx, "g1", "a", protocol.EmptyTurn(0))
	requireCode(t, err, codes.FailedPrecondition)
}

func TestSubmitTurn_RateLimited(t *testing.T) {
	opts := testOptions()
	opts.Server.TurnRateLimit = 1
	opts.Server.TurnBurst = 1
	client, manager := setupTestServer(t, opts)
	ctx := ctxWithTimeout(t)
	_, err := client.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)

	_, err = client.SubmitTurn(ctx, "g1", "a", protocol.EmptyTurn(0))
	require.NoError(t, err)
	_, err = client.SubmitTurn(ctx, "g1", "a", protocol.EmptyTurn(1))
	requireCode(t, err, codes.ResourceExhausted)

	// another client has its own bucket
	_, err = client.SubmitTurn(ctx, "g1", "b", protocol.EmptyTurn(1))
	require.NoError(t, err)

	manager.ApplyConfig(config.ServerConfig{MaxGames: 4, TurnRateLimit: 0})
	_, err = client.SubmitTurn(ctx, "g1", "a", protocol.EmptyTurn(2))
	require.NoError(t, err)
}

func TestStreamUpdates_MirrorsHostedGame(t *testing.T) {
	client, manager := setupTestServer(t, testOptions())
	ctx := ctxWithTimeout(t)
	req := testCreateRequest(t, "g1")
	_, err := client.CreateGame(ctx, req)
	require.NoError(t, err)

	stream, err := client.StreamUpdates(ctx, "g1")
	require.NoError(t, err)
	snapshot, err := stream.Recv()
	require.NoError(t, err)
	assert.Zero(t, snapshot.Tick)

	m, err := req.Terrain.GameMap()
	require.NoError(t, err)
	v := view.NewGameView(m, zerolog.Nop())
	require.NoError(t, v.Load(snapshot))

	turns := []protocol.Turn{
		{TurnNumber: 0, Intents: []protocol.Intent{
			protocol.SpawnIntent("a", "Alpha", core.NewCell(5, 5)),
			protocol.SpawnIntent("b", "Beta", core.NewCell(14, 5)),
		}},
	}
	for i := 1; i < 12; i++ {
		turns = append(turns, protocol.EmptyTurn(i))
	}
	turns[4].Intents = []protocol.Intent{protocol.AttackIntent("a", "", 0)}
	for _, turn := range turns {
		_, err := client.SubmitTurn(ctx, "g1", "a", turn)
		require.NoError(t, err)
	}

	for v.Tick() < len(turns) {
		gu, err := stream.Recv()
		require.NoError(t, err)
		require.NoError(t, v.Update(gu))
	}

	g, ok := manager.GetGame("g1")
	require.True(t, ok)
	g.mu.Lock()
	host := g.view.Snapshot()
	g.mu.Unlock()
	assert.Equal(t, host, v.Snapshot())
	assert.Len(t, v.Players(), 2)

	// a late subscriber starts from the current state
	late, err := client.StreamUpdates(ctx, "g1")
	require.NoError(t, err)
	first, err := late.Recv()
	require.NoError(t, err)
	assert.Equal(t, len(turns), first.Tick)

	require.NoError(t, manager.RemoveGame("g1"))
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestQuery(t *testing.T) {
	client, _ := setupTestServer(t, testOptions())
	ctx := ctxWithTimeout(t)
	_, err := client.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)

	stream, err := client.StreamUpdates(ctx, "g1")
	require.NoError(t, err)
	_, err = stream.Recv()
	require.NoError(t, err)

	spawn := protocol.Turn{TurnNumber: 0, Intents: []protocol.Intent{protocol.SpawnIntent("a", "Alpha", core.NewCell(5, 5))}}
	_, err = client.SubmitTurn(ctx, "g1", "a", spawn)
	require.NoError(t, err)
	gu, err := stream.Recv()
	require.NoError(t, err)
	require.Len(t, gu.Updates.Players, 1)
	playerID := gu.Updates.Players[0].ID

	res, err := client.Query(ctx, "g1", runtime.PlayerProfileQuery(playerID))
	require.NoError(t, err)
	require.NotNil(t, res.Profile)
	assert.Equal(t, playerID, res.Profile.PlayerID)
	assert.Positive(t, res.Profile.Tiles)

	_, err = client.Query(ctx, "g1", runtime.PlayerProfileQuery("nobody"))
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.Query(ctx, "missing", runtime.PlayerProfileQuery(playerID))
	requireCode(t, err, codes.NotFound)
}

func TestReportHash(t *testing.T) {
	client, _ := setupTestServer(t, testOptions())
	ctx := ctxWithTimeout(t)

	report, err := client.ReportHash(ctx, "remote", "a", 5, 100)
	require.NoError(t, err)
	assert.Nil(t, report)
	report, err = client.ReportHash(ctx, "remote", "b", 5, 100)
	require.NoError(t, err)
	assert.Nil(t, report)

	report, err = client.ReportHash(ctx, "remote", "c", 5, 200)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, uint64(100), report.Majority)
	assert.Equal(t, []string{"c"}, report.Diverged)

	_, err = client.ReportHash(ctx, "remote", ServerClientID, 5, 100)
	requireCode(t, err, codes.InvalidArgument)
}

func TestReportHash_AgainstHostedGame(t *testing.T) {
	client, _ := setupTestServer(t, testOptions())
	ctx := ctxWithTimeout(t)
	_, err := client.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)

	stream, err := client.StreamUpdates(ctx, "g1")
	require.NoError(t, err)
	_, err = stream.Recv()
	require.NoError(t, err)

	_, err = client.SubmitTurn(ctx, "g1", "a", protocol.EmptyTurn(0))
	require.NoError(t, err)
	gu, err := stream.Recv()
	require.NoError(t, err)
	h, ok := gu.LastHash()
	require.True(t, ok)

	// the pump votes after fan-out, so the host hash may land shortly after
	assert.Eventually(t, func() bool {
		report, err := client.ReportHash(ctx, "g1", "liar", h.Tick, h.Hash+1)
		return err == nil && report != nil && report.Includes("liar")
	}, testTimeout, 10*time.Millisecond)

	report, err := client.ReportHash(ctx, "g1", "honest", h.Tick, h.Hash)
	require.NoError(t, err)
	require.NotNil(t, report, "the liar's vote still disagrees")
	assert.Equal(t, h.Hash, report.Majority)
	assert.Equal(t, []string{"liar"}, report.Diverged)
}

func TestArchive_RecordsHostedGame(t *testing.T) {
	a, err := archive.Open(filepath.Join(t.TempDir(), "games.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	opts := testOptions()
	opts.Archive = a
	client, _ := setupTestServer(t, opts)
	ctx := ctxWithTimeout(t)
	_, err = client.CreateGame(ctx, testCreateRequest(t, "g1"))
	require.NoError(t, err)

	spawn := protocol.Turn{TurnNumber: 0, Intents: []protocol.Intent{protocol.SpawnIntent("a", "Alpha", core.NewCell(5, 5))}}
	_, err = client.SubmitTurn(ctx, "g1", "a", spawn)
	require.NoError(t, err)
	for i := 1; i < 8; i++ {
		_, err = client.SubmitTurn(ctx, "g1", "a", protocol.EmptyTurn(i))
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		hashes, err := a.Hashes(ctx, "g1")
		return err == nil && len(hashes) == 8
	}, testTimeout, 10*time.Millisecond)

	res, err := a.Verify(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, res.Diverged)
	assert.Equal(t, 8, res.Checked)
}
