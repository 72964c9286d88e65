package ui

import (
	"testing"
	"time"
)

func TestFormatCooldown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{300 * time.Millisecond, "1s"},
		{30 * time.Second, "30s"},
		{59500 * time.Millisecond, "1m00s"},
		{125 * time.Second, "2m05s"},
	}
	for _, tt := range tests {
		if got := FormatCooldown(tt.in); got != tt.want {
			t.Errorf("FormatCooldown(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
