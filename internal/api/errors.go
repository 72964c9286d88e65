package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/chat"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/store"
	"github.com/yovo-social/yovo/internal/validate"
)

// fallbackMessage is shown when the server gave no reason.
const fallbackMessage = "An error occurred"

// toStatus maps a domain error to a gRPC status for front ends.
func toStatus(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := grpcstatus.FromError(err); ok {
		return err
	}

	var (
		fieldErrs validate.Errors
		rl        *remote.RateLimitError
		apiErr    *remote.APIError
	)
	switch {
	case errors.As(err, &fieldErrs):
		return grpcstatus.Error(codes.InvalidArgument, fieldErrs.Error())
	case errors.Is(err, auth.ErrSessionExpired):
		return grpcstatus.Error(codes.Unauthenticated, "Session expired, please sign in again")
	case errors.Is(err, auth.ErrNotSignedIn):
		return grpcstatus.Error(codes.Unauthenticated, "Not signed in")
	case errors.As(err, &rl):
		return grpcstatus.Errorf(codes.ResourceExhausted, "Too many requests, retry in %s", rl.RetryAfter)
	case errors.As(err, &apiErr):
		return grpcstatus.Error(httpCode(apiErr.Status), remote.ErrorMessage(err, fallbackMessage))
	case errors.Is(err, chat.ErrEmptyMessage):
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, chat.ErrNoConversation), errors.Is(err, chat.ErrNotFailed):
		return grpcstatus.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, chat.ErrUnknownMessage), errors.Is(err, store.ErrNotFound):
		return grpcstatus.Error(codes.NotFound, err.Error())
	case errors.Is(err, chat.ErrStale):
		return grpcstatus.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return grpcstatus.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.Error(codes.DeadlineExceeded, err.Error())
	}
	return grpcstatus.Error(codes.Internal, fmt.Sprintf("%s: %v", op, err))
}

func httpCode(status int) codes.Code {
	switch {
	case status == http.StatusUnauthorized:
		return codes.Unauthenticated
	case status == http.StatusForbidden:
		return codes.PermissionDenied
	case status == http.StatusNotFound:
		return codes.NotFound
	case status == http.StatusConflict:
		return codes.AlreadyExists
	case status == http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case status >= 400 && status < 500:
		return codes.InvalidArgument
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway, status == http.StatusGatewayTimeout:
		return codes.Unavailable
	}
	return codes.Internal
}

func required(field, value string) error {
	if value == "" {
		return grpcstatus.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	return nil
}
