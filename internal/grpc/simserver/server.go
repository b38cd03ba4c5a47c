// Package simserver hosts simulation runtimes behind a gRPC service. Turn
// ordering stays with the caller: the server only accepts the next
// consecutive turn of each game.
package simserver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// Server implements SimulationServer on top of a GameManager.
type Server struct {
	manager *GameManager
	logger  zerolog.Logger
}

// NewServer creates a server for manager.
func NewServer(manager *GameManager, logger zerolog.Logger) *Server {
	return &Server{
		manager: manager,
		logger:  logger.With().Str("component", "SimServer").Logger(),
	}
}

// Manager returns the game manager behind the server.
func (s *Server) Manager() *GameManager {
	return s.manager
}

func decode(in *wrapperspb.BytesValue, v interface{}) error {
	if err := protocol.Unmarshal(in.GetValue(), v); err != nil {
		return toStatus(fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	return nil
}

func encode(v interface{}) (*wrapperspb.BytesValue, error) {
	b, err := protocol.Marshal(v)
	if err != nil {
		return nil, toStatus(fmt.Errorf("encode response: %w", err))
	}
	return wrapperspb.Bytes(b), nil
}

// CreateGame starts a new hosted game.
func (s *Server) CreateGame(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req CreateGameRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	gameID, snapshot, err := s.manager.CreateGame(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(CreateGameResponse{GameID: gameID, Snapshot: snapshot})
}

// SubmitTurn forwards the next turn of a game.
func (s *Server) SubmitTurn(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req SubmitTurnRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	next, err := s.manager.SubmitTurn(ctx, req)
	if err != nil {
		s.logger.Debug().Err(err).
			Str("game_id", req.GameID).
			Str("client_id", req.ClientID).
			Int("turn", req.Turn.TurnNumber).
			Msg("Turn rejected")
		return nil, toStatus(err)
	}
	return encode(SubmitTurnResponse{NextTurn: next})
}

// Query answers a read-only query.
func (s *Server) Query(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req QueryRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	result, err := s.manager.Query(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(QueryResponse{Result: result})
}

// ReportHash records a client hash and returns a report on mismatch.
func (s *Server) ReportHash(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req ReportHashRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	report, err := s.manager.ReportHash(req)
	if err != nil {
		return nil, toStatus(err)
	}
	if report != nil {
		s.logger.Warn().
			Str("game_id", req.GameID).
			Int("tick", req.Tick).
			Strs("diverged", report.Diverged).
			Msg("Desync reported")
	}
	return encode(ReportHashResponse{Report: report})
}

// StreamUpdates sends the current state of a game followed by every diff
// the game produces.
func (s *Server) StreamUpdates(in *wrapperspb.BytesValue, stream UpdatesServerStream) error {
	var req StreamUpdatesRequest
	if err := decode(in, &req); err != nil {
		return err
	}

	snapshot, updates, cancel, err := s.manager.Subscribe(req.GameID)
	if err != nil {
		return toStatus(err)
	}
	defer func() { _ = cancel() }()

	logger := s.logger.With().Str("game_id", req.GameID).Logger()
	logger.Info().Int("tick", snapshot.Tick).Msg("Stream subscriber connected")

	msg, err := encode(snapshot)
	if err != nil {
		return err
	}
	if err := stream.Send(msg); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case gu, ok := <-updates:
			if !ok {
				if err := cancel(); err != nil {
					return toStatus(err)
				}
				logger.Info().Msg("Game stopped, closing stream")
				return nil
			}
			msg, err := encode(gu)
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				logger.Debug().Err(err).Msg("Stream send failed")
				return err
			}
		case <-ctx.Done():
			logger.Info().Msg("Stream closed by client")
			return nil
		}
	}
}
