package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/archive"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/grpc/simserver"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/monitoring"
)

var (
	flagHost      string
	flagPort      int
	flagMaxGames  int
	flagServeDB   string
	flagNoArchive bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host simulations over gRPC",
	Long: `Start the gRPC simulation host.

Clients create games, submit turns in order, stream diffs, run queries and
report their tick hashes for desync detection. Server settings (limits,
idle timeout) are reloaded when the config file changes.

Examples:
  frontsim serve
  frontsim serve --port 6000 --max-games 20
  frontsim serve --db ./archive.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHost, "host", "", "Listen host (empty to use config)")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (0 to use config)")
	serveCmd.Flags().IntVar(&flagMaxGames, "max-games", 0, "Maximum hosted games (0 to use config)")
	serveCmd.Flags().StringVar(&flagServeDB, "db", "", "Archive database path; enables archiving")
	serveCmd.Flags().BoolVar(&flagNoArchive, "no-archive", false, "Disable archiving even if configured")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Get()
	serverCfg := cfg.Server
	if flagHost != "" {
		serverCfg.Host = flagHost
	}
	if flagPort != 0 {
		serverCfg.Port = flagPort
	}
	if flagMaxGames != 0 {
		serverCfg.MaxGames = flagMaxGames
	}

	var arch *archive.Archive
	archivePath := cfg.Archive.Path
	if flagServeDB != "" {
		archivePath = flagServeDB
	}
	if (cfg.Archive.Enabled || flagServeDB != "") && !flagNoArchive {
		a, err := archive.Open(expandPath(archivePath), log.Logger)
		if err != nil {
			return err
		}
		defer a.Close()
		arch = a
	}

	monitor := monitoring.NewMonitor(monitoring.Options{}, log.Logger)
	monitor.Start()
	defer monitor.Stop()

	manager := simserver.NewGameManager(simserver.Options{
		Server:  serverCfg,
		Runtime: runtimeConfig(cfg),
		Archive: arch,
		Monitor: monitor,
		Logger:  log.Logger,
	})
	defer manager.Close()

	config.WatchConfig(func(next *config.Config) {
		reloaded := next.Server
		if flagMaxGames != 0 {
			reloaded.MaxGames = flagMaxGames
		}
		manager.ApplyConfig(reloaded)
	})

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcServer := grpc.NewServer(simserver.ServerOptions(log.Logger)...)
	simserver.RegisterSimulationServer(grpcServer, simserver.NewServer(manager, log.Logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(simserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if serverCfg.EnableReflection {
		reflection.Register(grpcServer)
		log.Info().Msg("gRPC reflection enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", lis.Addr().String()).
			Int("max_games", serverCfg.MaxGames).
			Bool("archive", arch != nil).
			Msg("gRPC server listening")
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Received shutdown signal")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(simserver.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Give ongoing requests time to complete
	time.Sleep(time.Duration(serverCfg.GracefulShutdownDelay) * time.Second)

	// hosted games end their update streams, which GracefulStop waits on
	manager.Close()
	log.Info().Msg("Gracefully stopping gRPC server")
	grpcServer.GracefulStop()
	log.Info().Msg("Server shutdown complete")
	return nil
}
