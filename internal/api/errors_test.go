package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/chat"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/store"
	"github.com/yovo-social/yovo/internal/validate"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
		wantMsg  string
	}{
		{"validation", validate.Login("", ""), codes.InvalidArgument, "username is required"},
		{"session expired", fmt.Errorf("refresh: %w", auth.ErrSessionExpired), codes.Unauthenticated, "Session expired"},
		{"not signed in", auth.ErrNotSignedIn, codes.Unauthenticated, "Not signed in"},
		{
			"rate limited",
			&remote.RateLimitError{APIError: remote.APIError{Status: 429}, RetryAfter: 60 * time.Second},
			codes.ResourceExhausted, "retry in 1m0s",
		},
		{"server message", &remote.APIError{Status: 404, Message: "Conversation not found"}, codes.NotFound, "Conversation not found"},
		{"fallback message", &remote.APIError{Status: 500}, codes.Internal, fallbackMessage},
		{"unauthorized", &remote.APIError{Status: 401, Message: "bad credentials"}, codes.Unauthenticated, "bad credentials"},
		{"empty message", chat.ErrEmptyMessage, codes.InvalidArgument, ""},
		{"no conversation", chat.ErrNoConversation, codes.FailedPrecondition, ""},
		{"unknown message", chat.ErrUnknownMessage, codes.NotFound, ""},
		{"store not found", store.ErrNotFound, codes.NotFound, ""},
		{"stale", chat.ErrStale, codes.Aborted, ""},
		{"canceled", context.Canceled, codes.Canceled, ""},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, ""},
		{"other", errors.New("disk full"), codes.Internal, "send: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := grpcstatus.FromError(toStatus("send", tt.err))
			if !ok {
				t.Fatalf("toStatus(%v) is not a gRPC status", tt.err)
			}
			if st.Code() != tt.wantCode {
				t.Errorf("code = %s, want %s", st.Code(), tt.wantCode)
			}
			if !strings.Contains(st.Message(), tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", st.Message(), tt.wantMsg)
			}
		})
	}
}

func TestToStatusPassesThrough(t *testing.T) {
	if toStatus("op", nil) != nil {
		t.Error("toStatus(nil) should be nil")
	}
	in := grpcstatus.Error(codes.NotFound, "gone")
	if got := toStatus("op", in); got != in {
		t.Errorf("toStatus(status) = %v, want it unchanged", got)
	}
}

func TestHTTPCode(t *testing.T) {
	tests := []struct {
		status int
		want   codes.Code
	}{
		{401, codes.Unauthenticated},
		{403, codes.PermissionDenied},
		{404, codes.NotFound},
		{409, codes.AlreadyExists},
		{429, codes.ResourceExhausted},
		{400, codes.InvalidArgument},
		{422, codes.InvalidArgument},
		{502, codes.Unavailable},
		{503, codes.Unavailable},
		{504, codes.Unavailable},
		{500, codes.Internal},
	}
	for _, tt := range tests {
		if got := httpCode(tt.status); got != tt.want {
			t.Errorf("httpCode(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}
