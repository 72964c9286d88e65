package main

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"multi\nline   text", 20, "multi line text"},
		{"héllo wörld", 6, "héllo…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestErrMessage(t *testing.T) {
	if got := errMessage(grpcstatus.Error(codes.Unauthenticated, "not signed in")); got != "not signed in" {
		t.Errorf("errMessage(status) = %q", got)
	}
	if got := errMessage(errors.New("plain")); got != "plain" {
		t.Errorf("errMessage(plain) = %q", got)
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"status"}, {"login"}, {"chats"}, {"messages"}, {"send"}, {"retry"},
		{"feed"}, {"follows"}, {"share"}, {"theme", "set"}, {"group", "rename"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd == rootCmd {
			t.Errorf("command %v not registered", path)
		}
	}
}
