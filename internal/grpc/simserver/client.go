package simserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/desync"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/runtime"
)

// Client is a typed client for the simulation service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp interface{}, opts ...grpc.CallOption) error {
	b, err := protocol.Marshal(req)
	if err != nil {
		return err
	}
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, method, wrapperspb.Bytes(b), out, opts...); err != nil {
		return err
	}
	return protocol.Unmarshal(out.GetValue(), resp)
}

func (c *Client) CreateGame(ctx context.Context, req CreateGameRequest, opts ...grpc.CallOption) (*CreateGameResponse, error) {
	resp := new(CreateGameResponse)
	if err := c.invoke(ctx, methodCreateGame, req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitTurn returns the turn number the server expects next.
func (c *Client) SubmitTurn(ctx context.Context, gameID, clientID string, turn protocol.Turn, opts ...grpc.CallOption) (int, error) {
	resp := new(SubmitTurnResponse)
	req := SubmitTurnRequest{GameID: gameID, ClientID: clientID, Turn: turn}
	if err := c.invoke(ctx, methodSubmitTurn, req, resp, opts...); err != nil {
		return 0, err
	}
	return resp.NextTurn, nil
}

func (c *Client) Query(ctx context.Context, gameID string, q runtime.Query, opts ...grpc.CallOption) (*runtime.QueryResult, error) {
	resp := new(QueryResponse)
	if err := c.invoke(ctx, methodQuery, QueryRequest{GameID: gameID, Query: q}, resp, opts...); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// ReportHash implements runtime.HashReporter against a remote detector.
func (c *Client) ReportHash(ctx context.Context, gameID, clientID string, tick int, hash uint64) (*desync.Report, error) {
	resp := new(ReportHashResponse)
	req := ReportHashRequest{GameID: gameID, ClientID: clientID, Tick: tick, Hash: hash}
	if err := c.invoke(ctx, methodReportHash, req, resp); err != nil {
		return nil, err
	}
	return resp.Report, nil
}

var _ runtime.HashReporter = (*Client)(nil)

// UpdateStream receives the updates of one StreamUpdates call. The first
// update is a full snapshot; the rest are diffs.
type UpdateStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next update. It returns io.EOF when the server ends
// the stream cleanly.
func (s *UpdateStream) Recv() (*protocol.GameUpdateViewData, error) {
	in := new(wrapperspb.BytesValue)
	if err := s.stream.RecvMsg(in); err != nil {
		return nil, err
	}
	gu := new(protocol.GameUpdateViewData)
	if err := protocol.Unmarshal(in.GetValue(), gu); err != nil {
		return nil, err
	}
	return gu, nil
}

func (c *Client) StreamUpdates(ctx context.Context, gameID string, opts ...grpc.CallOption) (*UpdateStream, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], methodStreamUpdates, opts...)
	if err != nil {
		return nil, err
	}
	b, err := protocol.Marshal(StreamUpdatesRequest{GameID: gameID})
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(wrapperspb.Bytes(b)); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &UpdateStream{stream: stream}, nil
}
