package simserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/runtime"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameExists      = errors.New("game already exists")
	ErrAtCapacity      = errors.New("server at capacity")
	ErrTurnOutOfOrder  = errors.New("turn out of order")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrSubscriberSlow  = errors.New("update stream fell behind")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrManagerShutdown = errors.New("server shutting down")
)

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var simErr *runtime.SimulationError
	switch {
	case errors.Is(err, ErrGameNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrGameExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrAtCapacity), errors.Is(err, ErrRateLimited), errors.Is(err, ErrSubscriberSlow):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrTurnOutOfOrder):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrManagerShutdown), errors.Is(err, runtime.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.As(err, &simErr):
		if simErr.Fatal {
			return status.Error(codes.FailedPrecondition, simErr.Error())
		}
		return status.Error(codes.InvalidArgument, simErr.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}
