package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound        = fmt.Errorf("not found")
	ErrForbidden       = fmt.Errorf("forbidden")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrEmptyWords      = fmt.Errorf("no words have been found")
)

var (
	ErrChatNotFound   = fmt.Errorf("chat %w", ErrNotFound)
	ErrNotParticipant = fmt.Errorf("%w: you are not a participant of this chat", ErrForbidden)
	ErrEmptyMessage   = fmt.Errorf("%w: message content is required", ErrInvalidArgument)
	ErrSameUser       = fmt.Errorf("%w: a chat needs two different users", ErrInvalidArgument)
	ErrMissingUser    = fmt.Errorf("%w: user ids are required", ErrInvalidArgument)
	ErrMissingChatID  = fmt.Errorf("%w: chat id is required", ErrInvalidArgument)
	ErrNotAnImage     = fmt.Errorf("%w: uploaded file is not an image", ErrInvalidArgument)
	ErrImageTooLarge  = fmt.Errorf("%w: uploaded image is too large", ErrInvalidArgument)
	ErrUnknownEvent   = fmt.Errorf("%w: unknown event", ErrInvalidArgument)
	ErrInvalidToken   = fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
)

// MapToHTTPStatus translates a service error into the status returned by the REST API.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// MapToGRPCError translates a service error into a gRPC status error.
// Storage failures are not exposed to the caller.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case stderrors.Is(err, ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case stderrors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case stderrors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// PublicMessage is the message safe to show to an API caller.
func PublicMessage(err error) string {
	if MapToHTTPStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
