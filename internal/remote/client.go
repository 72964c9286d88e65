// Package remote is the authenticated HTTP pipeline to the yovo API server
// and the typed endpoints built on it.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yovo-social/yovo/internal/auth"
)

const (
	// RefreshPath rotates the access token using the server-held cookie.
	RefreshPath = "/api/auth/refresh-token"

	// DefaultRetryAfter applies when a 429 carries no usable retryAfter.
	DefaultRetryAfter = 60 * time.Second

	defaultTimeout = 15 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport. A cookie jar is installed when it
	// has none.
	HTTPClient *http.Client
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Anonymous requests carry no bearer token and never trigger a refresh.
	Anonymous bool
}

// Client sends requests with the session's bearer token, recovers from an
// expired token with one shared refresh and one replay, and records 429
// cooldowns on the session.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	session *auth.Session
	log     *zap.Logger

	refreshes singleflight.Group
}

// New creates a Client for opts.BaseURL bound to session.
func New(opts Options, session *auth.Session, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}

	return &Client{
		base:    base,
		http:    hc,
		timeout: timeout,
		session: session,
		log:     log,
	}, nil
}

// BaseURL returns the server root.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Jar returns the cookie jar holding the refresh credential.
func (c *Client) Jar() http.CookieJar { return c.http.Jar }

// Session returns the session the client authenticates with.
func (c *Client) Session() *auth.Session { return c.session }

// Do performs req and decodes a successful JSON body into out (when non-nil).
//
// A 401 on a non-anonymous request joins the single in-flight refresh and
// replays the request once with the rotated token. A failed refresh signs
// the session out and returns auth.ErrSessionExpired. A 429 is never
// retried; it opens a cooldown on the session and returns *RateLimitError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	token := ""
	if !req.Anonymous {
		token = c.session.Token()
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.Anonymous && !isRefreshPath(req.Path) {
		drain(resp)
		fresh, err := c.refresh(ctx, token)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, req, fresh)
		if err != nil {
			return err
		}
	}

	return c.decode(req, resp, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// refresh returns a fresh access token, sharing one rotation among all
// concurrent callers. stale is the token the failed request carried; if the
// session already holds a different one, that token is reused.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		if cur := c.session.Token(); cur != "" && cur != stale {
			return cur, nil
		}

		rctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		token, err := c.rotate(rctx)
		if err != nil {
			c.log.Warn("token refresh failed, signing out", zap.Error(err))
			c.session.Logout("session expired")
			return "", fmt.Errorf("%w: %v", auth.ErrSessionExpired, err)
		}
		c.session.Refresh(token)
		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Reauthenticate rotates the access token through the same shared refresh
// the request pipeline uses. A failed rotation signs the session out.
func (c *Client) Reauthenticate(ctx context.Context) error {
	_, err := c.refresh(ctx, c.session.Token())
	return err
}

type refreshResponse struct {
	AccessToken string     `json:"accessToken"`
	User        *auth.User `json:"user,omitempty"`
}

// rotate calls the refresh endpoint once. It is never retried.
func (c *Client) rotate(ctx context.Context) (string, error) {
	req := Request{Method: http.MethodGet, Path: RefreshPath, Anonymous: true}
	resp, err := c.send(ctx, req, "")
	if err != nil {
		return "", err
	}
	var out refreshResponse
	if err := c.decode(req, resp, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("refresh returned no access token")
	}
	if out.User != nil && out.User.ID != "" {
		c.session.SetUser(out.User)
	}
	return out.AccessToken, nil
}

func (c *Client) send(ctx context.Context, req Request, token string) (*http.Response, error) {
	u := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.Path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	c.log.Debug("api call",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return resp, nil
}

type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter any    `json:"retryAfter"`
}

func (c *Client) decode(req Request, resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.Path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", req.Path, err)
		}
		return nil
	}

	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	apiErr := APIError{
		Method:  req.Method,
		Path:    req.Path,
		Status:  resp.StatusCode,
		Message: eb.Error,
	}
	if apiErr.Message == "" {
		apiErr.Message = eb.Message
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		raw := ""
		if eb.RetryAfter != nil {
			raw = fmt.Sprint(eb.RetryAfter)
		} else {
			raw = resp.Header.Get("Retry-After")
		}
		wait := ParseRetryAfter(raw)
		c.session.SetRateLimited(wait)
		return &RateLimitError{APIError: apiErr, RetryAfter: wait}
	}
	return &apiErr
}

// ParseRetryAfter reads a server retry hint such as "60s" or "30" by
// keeping its digits as seconds. Empty, zero or unparseable values fall
// back to DefaultRetryAfter.
func ParseRetryAfter(v string) time.Duration {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, v)
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return DefaultRetryAfter
	}
	return time.Duration(n) * time.Second
}

func isRefreshPath(path string) bool {
	return strings.Contains(path, "/refresh")
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
