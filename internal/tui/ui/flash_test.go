package ui

import (
	"errors"
	"testing"
	"time"
)

func TestFlashExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("new model has a message")
	}
	f.Err(errors.New("Too many requests"))
	msg := f.Current()
	if msg == nil || msg.Level != FlashErr || msg.Text != "Too many requests" {
		t.Fatalf("current = %+v", msg)
	}

	now = now.Add(11 * time.Second)
	if f.Current() != nil {
		t.Error("message outlived its expiry")
	}

	f.Info("sent")
	if msg := f.Current(); msg == nil || msg.Level != FlashInfo {
		t.Errorf("current = %+v", msg)
	}
}
