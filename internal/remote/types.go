package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yovo-social/yovo/internal/auth"
)

// Ref is a reference to a user or conversation. The server sends these
// either as a bare id string or as a populated object; both decode to a Ref
// with at least ID set.
type Ref struct {
	ID             string `json:"_id"`
	Username       string `json:"username,omitempty"`
	ProfileName    string `json:"profile_name,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// UserRef builds a populated Ref from a user.
func UserRef(u *auth.User) Ref {
	if u == nil {
		return Ref{}
	}
	return Ref{ID: u.ID, Username: u.Username, ProfileName: u.ProfileName, ProfilePicture: u.ProfilePicture}
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = Ref{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			ID             string `json:"_id"`
			AltID          string `json:"id"`
			Username       string `json:"username"`
			ProfileName    string `json:"profile_name"`
			ProfilePicture string `json:"profilePicture"`
			Avatar         string `json:"avatar"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = Ref{
			ID:             obj.ID,
			Username:       obj.Username,
			ProfileName:    obj.ProfileName,
			ProfilePicture: obj.ProfilePicture,
		}
		if r.ID == "" {
			r.ID = obj.AltID
		}
		if r.ProfilePicture == "" {
			r.ProfilePicture = obj.Avatar
		}
		return nil
	default:
		return fmt.Errorf("ref: unexpected JSON %s", data)
	}
}

// Populated reports whether the ref carries more than an id.
func (r Ref) Populated() bool {
	return r.Username != "" || r.ProfileName != ""
}

// Name returns the profile name, then the username, then fallback.
func (r Ref) Name(fallback string) string {
	switch {
	case r.ProfileName != "":
		return r.ProfileName
	case r.Username != "":
		return r.Username
	}
	return fallback
}

// Message is a chat message as delivered by the API and the realtime channel.
type Message struct {
	ID             string    `json:"_id"`
	ConversationID Ref       `json:"conversationId"`
	Sender         Ref       `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// LastMessage is the denormalized snapshot kept on a conversation.
type LastMessage struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	Sender    Ref       `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is a direct or group chat.
type Conversation struct {
	ID           string       `json:"_id"`
	Participants []Ref        `json:"participants"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
	UnreadCount  int          `json:"unreadCount"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	IsGroup      bool         `json:"isGroup"`
	GroupName    string       `json:"group_name,omitempty"`
	GroupAvatar  string       `json:"group_avatar,omitempty"`
	Admin        *Ref         `json:"admin,omitempty"`
	Hidden       bool         `json:"isHidden,omitempty"`
}

// Other returns the first participant that is not me.
func (c *Conversation) Other(me string) (Ref, bool) {
	for _, p := range c.Participants {
		if p.ID != me {
			return p, true
		}
	}
	return Ref{}, false
}

// Post is a feed item.
type Post struct {
	ID            string    `json:"_id"`
	User          Ref       `json:"user"`
	Caption       string    `json:"caption"`
	Images        []string  `json:"images,omitempty"`
	Video         string    `json:"video,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	IsLiked       bool      `json:"isLiked"`
	IsFollowing   bool      `json:"isFollowing"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        string    `json:"_id"`
	User      Ref       `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tag is a hashtag with usage count.
type Tag struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// Activity is a notification about someone else's action.
type Activity struct {
	ID            string    `json:"_id"`
	Type          string    `json:"type"`
	Actor         Ref       `json:"actor"`
	TargetPost    *Ref      `json:"targetPost,omitempty"`
	TargetComment *Comment  `json:"targetComment,omitempty"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Describe renders the activity as a one-line sentence.
func (a *Activity) Describe() string {
	actor := a.Actor.Username
	if actor == "" {
		actor = "Someone"
	}
	switch a.Type {
	case "like_post":
		return actor + " liked your post"
	case "comment_post":
		text := "..."
		if a.TargetComment != nil && a.TargetComment.Text != "" {
			text = a.TargetComment.Text
		}
		return fmt.Sprintf("%s commented: %q", actor, text)
	case "post_created":
		return actor + " created a new post"
	case "follow_user":
		return actor + " started following you"
	case "unfollow_user":
		return actor + " unfollowed you"
	}
	if a.Message != "" {
		return a.Message
	}
	return "New activity"
}
