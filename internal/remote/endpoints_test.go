package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/status"
)

func TestLoginInstallsToken(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("login must be anonymous")
		}
		var creds Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "ana" || creds.Password != "Secret!12" || creds.Email != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "r1", Path: "/", HttpOnly: true})
		_, _ = w.Write([]byte(`{"accessToken":"t1","user":{"_id":"u1","username":"ana"}}`))
	})
	c, s, m := newTestClient(t, h)

	user, err := c.Login(context.Background(), Credentials{Username: "ana", Email: "x@y.z", Password: "Secret!12"})
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != "u1" || s.Token() != "t1" {
		t.Errorf("user=%+v token=%q", user, s.Token())
	}
	if m.Current() != status.Connecting {
		t.Errorf("state = %s, want CONNECTING", m.Current())
	}
	if len(c.Jar().Cookies(c.BaseURL())) != 1 {
		t.Error("refresh cookie not stored in jar")
	}

	_, err = c.Login(context.Background(), Credentials{Username: "ana", Password: "wrong"})
	if got := ErrorMessage(err, "An error occurred"); got != "Invalid credentials" {
		t.Errorf("Message = %q", got)
	}
}

func TestLoginFailureReturnsToSignedOut(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	c, _, m := newTestClient(t, h)
	if _, err := c.Login(context.Background(), Credentials{Username: "a", Password: "b"}); err == nil {
		t.Fatal("expected error")
	}
	if m.Current() != status.SignedOut {
		t.Errorf("state = %s, want SIGNED_OUT", m.Current())
	}
}

func TestResumeFetchesProfile(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("GET "+RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"t1"}`))
	})
	h.HandleFunc("GET /api/profile/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user":{"_id":"u1","username":"ana","email":"a@b.c","sessions":[{"_id":"s1"}]}}`))
	})
	c, s, _ := newTestClient(t, h)

	user, err := c.Resume(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "ana" || s.User().Email != "a@b.c" {
		t.Errorf("user = %+v", user)
	}
}

func TestMessagesQuery(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("GET /api/chat/c1", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "20" || q.Get("before") != "m9" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`{"messages":[{"_id":"m1","conversationId":"c1","sender":"u1","text":"a"}]}`))
	})
	c, s, _ := newTestClient(t, h)
	s.Login("t1", nil)

	msgs, err := c.Messages(context.Background(), "c1", MessageQuery{Before: "m9"})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Sender.ID != "u1" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestGroupCallsCarryUserID(t *testing.T) {
	var body map[string]string
	h := http.NewServeMux()
	h.HandleFunc("POST /api/chat/group/leave", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
	})
	c, s, _ := newTestClient(t, h)
	s.Login("t1", &auth.User{ID: "u1", Username: "ana"})

	if err := c.LeaveGroup(context.Background(), "g1"); err != nil {
		t.Fatal(err)
	}
	if body["conversationId"] != "g1" || body["userId"] != "u1" {
		t.Errorf("body = %v", body)
	}
}

func TestFollowsDecodesKeyedList(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("GET /api/follow/u1/followers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") != "abc" {
			t.Errorf("cursor = %q", r.URL.Query().Get("cursor"))
		}
		_, _ = w.Write([]byte(`{"followers":[{"_id":"u2","username":"bo"}],"nextCursor":"def"}`))
	})
	c, s, _ := newTestClient(t, h)
	s.Login("t1", nil)

	page, err := c.Follows(context.Background(), "u1", Followers, "abc", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Username != "bo" || page.NextCursor != "def" {
		t.Errorf("page = %+v", page)
	}
	if _, err := c.Follows(context.Background(), "u1", "friends", "", 0); err == nil {
		t.Error("expected error for unknown follow kind")
	}
}

func TestSearchMore(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("GET /api/explore/search/more", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"tags","items":[{"_id":"t1","name":"go"}]}`))
	})
	c, s, _ := newTestClient(t, h)
	s.Login("t1", nil)

	res, err := c.SearchMore(context.Background(), "", "tags", "t0")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tags) != 1 || res.Tags[0].Name != "go" {
		t.Errorf("tags = %+v", res.Tags)
	}
}

func TestActivityPaging(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("GET /api/activity", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "all" || r.URL.Query().Get("limit") != "10" {
			t.Errorf("query = %v", r.URL.Query())
		}
		_, _ = w.Write([]byte(`{"activities":[{"_id":"a1","type":"like_post"}],"totalPages":3}`))
	})
	c, s, _ := newTestClient(t, h)
	s.Login("t1", nil)

	page, err := c.Activity(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if page.Page != 2 || !page.HasMore() {
		t.Errorf("page = %+v", page)
	}
}
