package auth

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yovo-social/yovo/internal/bus"
	"github.com/yovo-social/yovo/internal/status"
)

// ErrSessionExpired is returned once a refresh failed and the session was
// torn down.
var ErrSessionExpired = errors.New("session expired, sign in again")

// ErrNotSignedIn is returned by operations that need a token when none is held.
var ErrNotSignedIn = errors.New("not signed in")

// Cooldown describes an active rate-limit window.
type Cooldown struct {
	Until time.Time
}

// Remaining returns the time left in the window relative to now.
func (c Cooldown) Remaining(now time.Time) time.Duration {
	if d := c.Until.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	State         status.State
	User          *User
	SignedIn      bool
	RateLimited   bool
	Cooldown      time.Duration
	CooldownUntil time.Time
	TokenExpiry   time.Time
}

// Session owns the access token, the signed-in user and the rate-limit
// cooldown. The refresh credential lives in the HTTP cookie jar, not here.
type Session struct {
	mu            sync.RWMutex
	token         string
	user          *User
	cooldownUntil time.Time
	cooldownTimer *time.Timer

	machine *status.Machine
	bus     *bus.Bus
	log     *zap.Logger
	now     func() time.Time
}

// NewSession creates a signed-out session. machine and b may be nil.
func NewSession(machine *status.Machine, b *bus.Bus, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		machine: machine,
		bus:     b,
		log:     log,
		now:     time.Now,
	}
}

// BeginLogin marks a credential exchange in progress.
func (s *Session) BeginLogin() {
	s.transition(status.Authenticating)
}

// AbortLogin returns to SignedOut after a failed credential exchange.
func (s *Session) AbortLogin() {
	if s.machine != nil && s.machine.Current() == status.Authenticating {
		s.transition(status.SignedOut)
	}
}

// Login installs a fresh token and user.
func (s *Session) Login(token string, user *User) {
	s.mu.Lock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	}
	s.mu.Unlock()

	if s.machine != nil && s.machine.Current() == status.SignedOut {
		s.transition(status.Authenticating)
	}
	s.transition(status.Connecting)
	s.log.Info("signed in", zap.String("user", s.userID()))
}

// Refresh replaces the access token after a successful rotation.
func (s *Session) Refresh(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.log.Debug("access token refreshed")
}

// SetUser replaces the cached profile.
func (s *Session) SetUser(user *User) {
	if user == nil {
		return
	}
	u := *user
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
}

// Logout clears token, user and cooldown. Safe to call repeatedly.
func (s *Session) Logout(reason string) {
	s.mu.Lock()
	wasSignedIn := s.token != "" || s.user != nil
	s.token = ""
	s.user = nil
	s.cooldownUntil = time.Time{}
	if s.cooldownTimer != nil {
		s.cooldownTimer.Stop()
		s.cooldownTimer = nil
	}
	s.mu.Unlock()

	if s.machine != nil && s.machine.Current() != status.SignedOut {
		s.transition(status.SignedOut)
	}
	if wasSignedIn {
		s.log.Info("signed out", zap.String("reason", reason))
		s.bus.Emit(bus.KindLoggedOut, reason)
	}
}

// Token returns the current access token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the signed-in user's id, falling back to the token subject.
func (s *Session) UserID() string {
	return s.userID()
}

func (s *Session) userID() string {
	s.mu.RLock()
	user, token := s.user, s.token
	s.mu.RUnlock()
	if user != nil && user.ID != "" {
		return user.ID
	}
	if token == "" {
		return ""
	}
	claims, err := ParseClaims(token)
	if err != nil {
		return ""
	}
	return claims.Subject()
}

// SignedIn reports whether an access token is held.
func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

// TokenExpiry returns the exp claim of the current token, or zero.
func (s *Session) TokenExpiry() time.Time {
	token := s.Token()
	if token == "" {
		return time.Time{}
	}
	claims, err := ParseClaims(token)
	if err != nil {
		return time.Time{}
	}
	return claims.Expiry()
}

// SetRateLimited opens a cooldown window of d. The window is advisory: the
// session stays usable and returns to Ready on its own when it elapses.
func (s *Session) SetRateLimited(d time.Duration) {
	until := s.now().Add(d)

	s.mu.Lock()
	s.cooldownUntil = until
	if s.cooldownTimer != nil {
		s.cooldownTimer.Stop()
	}
	s.cooldownTimer = time.AfterFunc(d, s.endCooldown)
	s.mu.Unlock()

	if s.machine != nil && s.machine.Current() == status.Ready {
		s.transition(status.RateLimited)
	}
	s.log.Warn("rate limited", zap.Duration("retry_after", d))
	s.bus.Emit(bus.KindRateLimited, Cooldown{Until: until})
}

func (s *Session) endCooldown() {
	s.mu.Lock()
	s.cooldownTimer = nil
	s.mu.Unlock()
	if s.machine != nil && s.machine.Current() == status.RateLimited {
		s.transition(status.Ready)
	}
}

// Cooldown returns the active cooldown window (zero Until when none).
func (s *Session) Cooldown() Cooldown {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Cooldown{Until: s.cooldownUntil}
}

// RateLimited reports whether a cooldown window is still open.
func (s *Session) RateLimited() bool {
	return s.Cooldown().Remaining(s.now()) > 0
}

// Snapshot returns a copy of the session for status reporting.
func (s *Session) Snapshot() Snapshot {
	cd := s.Cooldown()
	snap := Snapshot{
		User:        s.User(),
		SignedIn:    s.SignedIn(),
		Cooldown:    cd.Remaining(s.now()),
		TokenExpiry: s.TokenExpiry(),
	}
	snap.RateLimited = snap.Cooldown > 0
	if snap.RateLimited {
		snap.CooldownUntil = cd.Until
	}
	if s.machine != nil {
		snap.State = s.machine.Current()
	}
	return snap
}

func (s *Session) transition(to status.State) {
	if s.machine == nil {
		return
	}
	if err := s.machine.Transition(to); err != nil {
		s.log.Debug("state transition skipped", zap.Error(err))
	}
}
