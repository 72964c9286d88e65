package remote

import (
	"context"
	"errors"
	"net/http"

	"github.com/yovo-social/yovo/internal/auth"
)

// Credentials is the sign-in / sign-up form. Email is only sent on register.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string     `json:"accessToken"`
	User        *auth.User `json:"user"`
}

// SessionInfo is one signed-in device as listed on the profile.
type SessionInfo struct {
	ID        string `json:"_id"`
	Device    string `json:"device,omitempty"`
	Browser   string `json:"browser,omitempty"`
	IP        string `json:"ip,omitempty"`
	Location  string `json:"location,omitempty"`
	LastUsed  string `json:"lastUsed,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Profile is a user profile with its session list (only present for me).
type Profile struct {
	auth.User
	Sessions    []SessionInfo `json:"sessions,omitempty"`
	IsFollowing bool          `json:"isFollowing,omitempty"`
	IsPrivate   bool          `json:"is_account_private,omitempty"`
}

// Login exchanges credentials for a token and installs it on the session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*auth.User, error) {
	creds.Email = ""
	return c.authenticate(ctx, "/api/auth/login", creds)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, creds Credentials) (*auth.User, error) {
	return c.authenticate(ctx, "/api/auth/register", creds)
}

// FirebaseLogin signs in with an identity-provider id token.
func (c *Client) FirebaseLogin(ctx context.Context, idToken string) (*auth.User, error) {
	return c.authenticate(ctx, "/api/auth/firebase-login", map[string]string{"idToken": idToken})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*auth.User, error) {
	c.session.BeginLogin()

	var out authResponse
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Anonymous: true}, &out)
	if err == nil && out.AccessToken == "" {
		err = errors.New("server returned no access token")
	}
	if err != nil {
		c.session.AbortLogin()
		return nil, err
	}

	c.session.Login(out.AccessToken, out.User)
	return c.session.User(), nil
}

// Resume restores a session from the refresh cookie alone, then loads the
// profile when the refresh response did not carry a complete user.
func (c *Client) Resume(ctx context.Context) (*auth.User, error) {
	c.session.BeginLogin()
	token, err := c.rotate(ctx)
	if err != nil {
		c.session.AbortLogin()
		return nil, err
	}
	c.session.Login(token, c.session.User())

	if !c.session.User().Complete() {
		if _, err := c.Me(ctx); err != nil {
			return nil, err
		}
	}
	return c.session.User(), nil
}

// Logout ends this device's session on the server and clears local state
// even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.post(ctx, "/api/auth/logout", nil, nil)
	c.session.Logout("user")
	return err
}

// LogoutAll ends every session of the account, this one included.
func (c *Client) LogoutAll(ctx context.Context, password string) error {
	if err := c.post(ctx, "/api/auth/logout-all", map[string]string{"password": password}, nil); err != nil {
		return err
	}
	c.session.Logout("logout-all")
	return nil
}

// LogoutOtherSessions ends every session except this one and returns it.
func (c *Client) LogoutOtherSessions(ctx context.Context, password string) (*SessionInfo, error) {
	var out struct {
		CurrentSession *SessionInfo `json:"currentSession"`
	}
	if err := c.post(ctx, "/api/auth/logout-other-sessions", map[string]string{"password": password}, &out); err != nil {
		return nil, err
	}
	return out.CurrentSession, nil
}

// Me fetches the signed-in profile and caches it on the session.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out struct {
		User *Profile `json:"user"`
	}
	if err := c.get(ctx, "/api/profile/me", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.New("profile response has no user")
	}
	c.session.SetUser(&out.User.User)
	return out.User, nil
}

// Profile fetches another user's profile.
func (c *Client) Profile(ctx context.Context, userID string) (*Profile, error) {
	var out struct {
		User *Profile `json:"user"`
	}
	if err := c.get(ctx, "/api/profile/"+userID, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.New("profile response has no user")
	}
	return out.User, nil
}
