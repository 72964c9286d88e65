package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/status"
)

func signToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: sub,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestLoginLogoutTransitions(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("session.logged_out", 4)
	defer unsub()

	m := status.NewMachine(b)
	s := NewSession(m, b, nil)

	s.BeginLogin()
	if m.Current() != status.Authenticating {
		t.Fatalf("state = %s, want AUTHENTICATING", m.Current())
	}
	s.Login("tok-1", &User{ID: "u1", Username: "ana"})
	if m.Current() != status.Connecting {
		t.Fatalf("state = %s, want CONNECTING", m.Current())
	}
	if s.Token() != "tok-1" || s.User().ID != "u1" {
		t.Errorf("token/user not installed: %q %+v", s.Token(), s.User())
	}

	s.Logout("user")
	if m.Current() != status.SignedOut {
		t.Errorf("state = %s, want SIGNED_OUT", m.Current())
	}
	if s.Token() != "" || s.User() != nil {
		t.Error("logout should clear token and user")
	}
	select {
	case evt := <-ch:
		if evt.Payload != "user" {
			t.Errorf("logout reason = %v, want user", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no logged_out event")
	}

	// Second logout is silent.
	s.Logout("again")
	select {
	case evt := <-ch:
		t.Errorf("unexpected event on repeated logout: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoginFromSignedOutPassesThroughAuthenticating(t *testing.T) {
	m := status.NewMachine(nil)
	s := NewSession(m, nil, nil)
	s.Login("tok", nil)
	if m.Current() != status.Connecting {
		t.Errorf("state = %s, want CONNECTING", m.Current())
	}
}

func TestAbortLogin(t *testing.T) {
	m := status.NewMachine(nil)
	s := NewSession(m, nil, nil)
	s.BeginLogin()
	s.AbortLogin()
	if m.Current() != status.SignedOut {
		t.Errorf("state = %s, want SIGNED_OUT", m.Current())
	}
}

func TestRefreshKeepsUser(t *testing.T) {
	s := NewSession(nil, nil, nil)
	s.Login("old", &User{ID: "u1", Username: "ana"})
	s.Refresh("new")
	if s.Token() != "new" {
		t.Errorf("Token() = %q, want new", s.Token())
	}
	if s.User() == nil || s.User().ID != "u1" {
		t.Errorf("User() = %+v, want u1", s.User())
	}
}

func TestUserIsCopied(t *testing.T) {
	s := NewSession(nil, nil, nil)
	u := &User{ID: "u1", Username: "ana"}
	s.Login("tok", u)
	u.Username = "mutated"
	got := s.User()
	got.Username = "also mutated"
	if s.User().Username != "ana" {
		t.Errorf("session user leaked mutation: %q", s.User().Username)
	}
}

func TestUserIDFallsBackToTokenSubject(t *testing.T) {
	s := NewSession(nil, nil, nil)
	s.Login(signToken(t, "u42", time.Now().Add(time.Hour)), nil)
	if got := s.UserID(); got != "u42" {
		t.Errorf("UserID() = %q, want u42", got)
	}
}

func TestTokenExpiry(t *testing.T) {
	s := NewSession(nil, nil, nil)
	if !s.TokenExpiry().IsZero() {
		t.Error("expiry without token should be zero")
	}
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	s.Login(signToken(t, "u1", exp), nil)
	if got := s.TokenExpiry(); !got.Equal(exp) {
		t.Errorf("TokenExpiry() = %v, want %v", got, exp)
	}

	s.Refresh("not-a-jwt")
	if !s.TokenExpiry().IsZero() {
		t.Error("opaque token should report zero expiry")
	}
}

func TestRateLimitCooldown(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("session.rate_limited", 4)
	defer unsub()

	m := status.NewMachine(nil)
	s := NewSession(m, b, nil)
	s.Login("tok", nil)
	_ = m.Transition(status.Ready)

	s.SetRateLimited(60 * time.Second)
	if !s.RateLimited() {
		t.Fatal("RateLimited() = false after SetRateLimited")
	}
	if m.Current() != status.RateLimited {
		t.Errorf("state = %s, want RATE_LIMITED", m.Current())
	}
	rem := s.Cooldown().Remaining(time.Now())
	if rem <= 59*time.Second || rem > 60*time.Second {
		t.Errorf("remaining = %v, want ~60s", rem)
	}
	select {
	case evt := <-ch:
		if _, ok := evt.Payload.(Cooldown); !ok {
			t.Errorf("payload = %T, want Cooldown", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no rate_limited event")
	}

	s.Logout("user")
	if s.RateLimited() {
		t.Error("logout should clear the cooldown")
	}
}

func TestCooldownElapsesBackToReady(t *testing.T) {
	m := status.NewMachine(nil)
	s := NewSession(m, nil, nil)
	s.Login("tok", nil)
	_ = m.Transition(status.Ready)

	s.SetRateLimited(20 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	if s.RateLimited() {
		t.Error("cooldown should have elapsed")
	}
	if m.Current() != status.Ready {
		t.Errorf("state = %s, want READY", m.Current())
	}
}

func TestSnapshot(t *testing.T) {
	m := status.NewMachine(nil)
	s := NewSession(m, nil, nil)
	s.Login("tok", &User{ID: "u1", Username: "ana"})
	snap := s.Snapshot()
	if !snap.SignedIn || snap.State != status.Connecting || snap.User.Username != "ana" {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if snap.RateLimited {
		t.Error("fresh session should not be rate limited")
	}
}

func TestSnapshotCarriesCooldownWindow(t *testing.T) {
	m := status.NewMachine(nil)
	s := NewSession(m, nil, nil)
	s.Login("tok", nil)
	_ = m.Transition(status.Ready)

	s.SetRateLimited(30 * time.Second)
	snap := s.Snapshot()
	if !snap.RateLimited || snap.Cooldown <= 0 {
		t.Fatalf("Snapshot() = %+v, want rate limited", snap)
	}
	if !snap.CooldownUntil.Equal(s.Cooldown().Until) {
		t.Errorf("CooldownUntil = %v, want %v", snap.CooldownUntil, s.Cooldown().Until)
	}

	s.Logout("user")
	if snap := s.Snapshot(); !snap.CooldownUntil.IsZero() {
		t.Errorf("CooldownUntil after logout = %v, want zero", snap.CooldownUntil)
	}
}

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		user *User
		want string
	}{
		{nil, ""},
		{&User{Username: "ana"}, "ana"},
		{&User{Username: "ana", ProfileName: "Ana B"}, "Ana B"},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}
