package api

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipkeep/internal/capture"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/store"
)

// errInvalidArgument is returned for malformed requests that never reach
// the service, such as unparsable HTTP bodies.
var errInvalidArgument = errors.New("invalid argument")

// code maps service errors onto gRPC codes.
func code(err error) codes.Code {
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return s.Code()
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, capture.ErrEmptyContent),
		errors.Is(err, capture.ErrInvalidImage),
		errors.Is(err, store.ErrInvalidWindow),
		errors.Is(err, ErrInvalidCleanup),
		errors.Is(err, errInvalidArgument):
		return codes.InvalidArgument
	case errors.Is(err, capture.ErrNotImage):
		return codes.FailedPrecondition
	case errors.Is(err, clip.ErrUnavailable):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// toStatus converts err into a gRPC status error. nil stays nil.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(code(err), err.Error())
}

func httpStatus(err error) int {
	switch code(err) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err, local or remote, means the item does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || status.Code(err) == codes.NotFound
}
