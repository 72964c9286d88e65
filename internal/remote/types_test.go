package remote

import (
	"encoding/json"
	"testing"
)

func TestRefDecodesStringOrObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Ref
	}{
		{"bare id", `"u1"`, Ref{ID: "u1"}},
		{"object", `{"_id":"u2","username":"ana","profile_name":"Ana"}`, Ref{ID: "u2", Username: "ana", ProfileName: "Ana"}},
		{"alt id and avatar", `{"id":"u3","avatar":"a.png"}`, Ref{ID: "u3", ProfilePicture: "a.png"}},
		{"null", `null`, Ref{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Ref
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	var bad Ref
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Error("expected error for numeric ref")
	}
}

func TestMessageNormalizesPolymorphicFields(t *testing.T) {
	payloads := []string{
		`{"_id":"m1","conversationId":"c1","sender":"u1","text":"hi","createdAt":"2026-01-02T03:04:05Z"}`,
		`{"_id":"m1","conversationId":{"_id":"c1"},"sender":{"_id":"u1","username":"ana"},"text":"hi","createdAt":"2026-01-02T03:04:05Z"}`,
	}
	for _, p := range payloads {
		var m Message
		if err := json.Unmarshal([]byte(p), &m); err != nil {
			t.Fatalf("decode %s: %v", p, err)
		}
		if m.ConversationID.ID != "c1" || m.Sender.ID != "u1" {
			t.Errorf("normalized refs = %q/%q, want c1/u1", m.ConversationID.ID, m.Sender.ID)
		}
	}
}

func TestConversationOther(t *testing.T) {
	c := Conversation{Participants: []Ref{{ID: "me"}, {ID: "u2", Username: "bo"}}}
	other, ok := c.Other("me")
	if !ok || other.ID != "u2" {
		t.Errorf("Other = %+v, %v", other, ok)
	}
	solo := Conversation{Participants: []Ref{{ID: "me"}}}
	if _, ok := solo.Other("me"); ok {
		t.Error("Other on self-only conversation should be false")
	}
}

func TestRefName(t *testing.T) {
	if got := (Ref{ID: "u"}).Name("Direct Message"); got != "Direct Message" {
		t.Errorf("Name = %q", got)
	}
	if got := (Ref{Username: "ana"}).Name("x"); got != "ana" {
		t.Errorf("Name = %q", got)
	}
	if got := (Ref{Username: "ana", ProfileName: "Ana B"}).Name("x"); got != "Ana B" {
		t.Errorf("Name = %q", got)
	}
}

func TestActivityDescribe(t *testing.T) {
	tests := []struct {
		a    Activity
		want string
	}{
		{Activity{Type: "like_post", Actor: Ref{Username: "ana"}}, "ana liked your post"},
		{Activity{Type: "comment_post", Actor: Ref{Username: "ana"}, TargetComment: &Comment{Text: "nice"}}, `ana commented: "nice"`},
		{Activity{Type: "comment_post"}, `Someone commented: "..."`},
		{Activity{Type: "follow_user", Actor: Ref{Username: "bo"}}, "bo started following you"},
		{Activity{Type: "unfollow_user", Actor: Ref{Username: "bo"}}, "bo unfollowed you"},
		{Activity{Type: "post_created", Actor: Ref{Username: "bo"}}, "bo created a new post"},
		{Activity{Type: "mystery", Message: "custom"}, "custom"},
		{Activity{Type: "mystery"}, "New activity"},
	}
	for _, tt := range tests {
		if got := tt.a.Describe(); got != tt.want {
			t.Errorf("Describe(%s) = %q, want %q", tt.a.Type, got, tt.want)
		}
	}
}
