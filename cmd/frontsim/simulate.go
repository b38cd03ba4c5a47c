package main

import (
	"fmt"
	"os"
	"os/signal"
	"slices"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/archive"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/desync"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/mapgen"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/grpc/simserver"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/runtime"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/view"
)

var (
	flagTurns      int
	flagBots       int
	flagSeed       int64
	flagSimGameID  string
	flagSimDB      string
	flagHashServer string
	flagTop        int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a local bot game",
	Long: `Run a game of bots locally for a number of turns and print the
standings. Every turn is empty; the bots drive the game.

With --db the game is archived and can be checked later with replay.
With --server tick hashes are reported to a running host for desync
detection.

Examples:
  frontsim simulate --turns 300 --bots 6
  frontsim simulate --turns 1000 --bots 10 --seed 7 --db ./archive.db
  frontsim simulate --server localhost:50061 --game shared-1`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagTurns, "turns", 300, "Number of turns to run")
	simulateCmd.Flags().IntVar(&flagBots, "bots", -1, "Number of bots (-1 to use config)")
	simulateCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Map seed (0 to use config)")
	simulateCmd.Flags().StringVar(&flagSimGameID, "game", "", "Game id; seeds the bot roster (default: random)")
	simulateCmd.Flags().StringVar(&flagSimDB, "db", "", "Archive the game to this database")
	simulateCmd.Flags().StringVar(&flagHashServer, "server", "", "Report hashes to the host at this address")
	simulateCmd.Flags().IntVar(&flagTop, "top", 10, "Players to list in the standings")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg := config.Get()
	gameCfg := cfg.Game
	if flagBots >= 0 {
		gameCfg.NumBots = flagBots
	}
	mapCfg := cfg.Map
	if flagSeed != 0 {
		mapCfg.Seed = flagSeed
	}
	gameID := flagSimGameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	logger := log.With().Str("game_id", gameID).Logger()

	m, err := mapgen.NewGenerator(mapCfg).Generate()
	if err != nil {
		return fmt.Errorf("generate map: %w", err)
	}
	initReq := runtime.InitRequest{GameID: gameID, Game: gameCfg, Map: mapCfg, Terrain: runtime.TerrainOf(m)}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var arch *archive.Archive
	if flagSimDB != "" {
		arch, err = archive.Open(expandPath(flagSimDB), logger)
		if err != nil {
			return err
		}
		defer arch.Close()
		if err := arch.CreateGame(ctx, initReq); err != nil {
			return err
		}
	}

	var reporter runtime.HashReporter = runtime.DetectorReporter{Detector: desync.NewDetector(0, logger)}
	if flagHashServer != "" {
		conn, err := grpc.NewClient(flagHashServer, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("connect to %s: %w", flagHashServer, err)
		}
		defer conn.Close()
		reporter = simserver.NewClient(conn)
	}

	client := runtime.NewClient(runtimeConfig(cfg), logger)
	defer client.Close()
	snapshot, err := client.Init(ctx, initReq)
	if err != nil {
		return err
	}
	v := view.NewGameView(m, logger)
	if err := v.Load(snapshot); err != nil {
		return err
	}

	runner := runtime.NewGameRunner(gameID, "local", client, v, reporter, logger)
	runner.Start()

	logger.Info().
		Int("turns", flagTurns).
		Int("bots", gameCfg.NumBots).
		Int64("seed", mapCfg.Seed).
		Msg("Simulation started")

	for turn := 0; turn < flagTurns; turn++ {
		t := protocol.EmptyTurn(turn)
		if err := runner.AddTurn(ctx, t); err != nil {
			return err
		}
		if err := runner.WaitForTick(ctx, turn+1); err != nil {
			return err
		}
		if arch != nil {
			if err := arch.RecordTurn(ctx, gameID, t); err != nil {
				return err
			}
			if h, ok := v.LastHash(); ok {
				if err := arch.RecordHash(ctx, gameID, h.Tick, h.Hash); err != nil {
					return err
				}
			}
		}
		for _, ev := range v.DisplayEvents() {
			if ev.MessageType == runtime.MessageDesync {
				logger.Warn().Int("tick", v.Tick()).Msg(ev.Message)
			}
		}
		if v.Winner() != nil {
			break
		}
	}

	printStandings(v, gameID)
	return nil
}

func printStandings(v *view.GameView, gameID string) {
	players := v.Players()
	slices.SortStableFunc(players, func(a, b *view.PlayerView) int {
		return b.NumTilesOwned() - a.NumTilesOwned()
	})

	fmt.Printf("Game %s after %d ticks\n", gameID, v.Tick())
	if h, ok := v.LastHash(); ok {
		fmt.Printf("Hash at tick %d: %016x\n", h.Tick, h.Hash)
	}
	if w := v.Winner(); w != nil {
		fmt.Printf("Winner: %s\n", w.Name())
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTILES\tTROOPS\tGOLD\tALIVE")
	for i, p := range players {
		if i >= flagTop {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%t\n", i+1, p.Name(), p.NumTilesOwned(), p.Troops(), p.Gold(), p.IsAlive())
	}
	tw.Flush()
}
