package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Page sizes used by the feed surfaces.
const (
	FeedPageSize         = 5
	ExplorePostsPageSize = 9
	ExploreUsersPageSize = 10
	ExploreTagsPageSize  = 8
	ActivityPageSize     = 10
	FollowPageSize       = 20
)

// Page is one cursor-paginated slice of a list.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// FeedPage is the home feed response.
type FeedPage struct {
	Posts       []Post `json:"posts"`
	NextCursor  string `json:"nextCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// ExploreLanding is the first explore screen.
type ExploreLanding struct {
	Tags           []Tag  `json:"tags"`
	Users          []Ref  `json:"users"`
	Posts          []Post `json:"posts"`
	NextPostCursor string `json:"nextPostCursor"`
	NextUserCursor string `json:"nextUserCursor"`
}

// SearchResults groups matches by kind.
type SearchResults struct {
	Posts []Post `json:"posts"`
	Users []Ref  `json:"users"`
	Tags  []Tag  `json:"tags"`
}

// ActivityPage is one numbered page of notifications.
type ActivityPage struct {
	Activities []Activity `json:"activities"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}

// HasMore reports whether a later page exists.
func (p *ActivityPage) HasMore() bool { return p.Page < p.TotalPages }

// FollowKind selects a follow list.
type FollowKind string

const (
	Followers FollowKind = "followers"
	Following FollowKind = "following"
)

// Valid reports whether k names a known follow list.
func (k FollowKind) Valid() bool { return k == Followers || k == Following }

func cursorParams(cursor string, limit int) url.Values {
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

// Feed fetches a page of the home feed.
func (c *Client) Feed(ctx context.Context, cursor string, limit int) (*FeedPage, error) {
	if limit <= 0 {
		limit = FeedPageSize
	}
	var out FeedPage
	if err := c.get(ctx, "/api/posts/", cursorParams(cursor, limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Post fetches a single post.
func (c *Client) Post(ctx context.Context, postID string) (*Post, error) {
	var out struct {
		Post *Post `json:"post"`
	}
	if err := c.get(ctx, "/api/posts/post/"+url.PathEscape(postID), nil, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

// Explore fetches the explore landing screen.
func (c *Client) Explore(ctx context.Context) (*ExploreLanding, error) {
	params := url.Values{
		"limitPosts": {strconv.Itoa(ExplorePostsPageSize)},
		"limitUsers": {strconv.Itoa(ExploreUsersPageSize)},
		"limitTags":  {strconv.Itoa(ExploreTagsPageSize)},
	}
	var out ExploreLanding
	if err := c.get(ctx, "/api/explore", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExplorePosts continues the explore post grid.
func (c *Client) ExplorePosts(ctx context.Context, cursor string, limit int) (Page[Post], error) {
	if limit <= 0 {
		limit = ExplorePostsPageSize
	}
	var out struct {
		Posts      []Post `json:"posts"`
		NextCursor string `json:"nextCursor"`
	}
	if err := c.get(ctx, "/api/explore/posts", cursorParams(cursor, limit), &out); err != nil {
		return Page[Post]{}, err
	}
	return Page[Post]{Items: out.Posts, NextCursor: out.NextCursor}, nil
}

// ExploreUsers continues the suggested-users list.
func (c *Client) ExploreUsers(ctx context.Context, cursor string, limit int) (Page[Ref], error) {
	if limit <= 0 {
		limit = ExploreUsersPageSize
	}
	var out struct {
		Users      []Ref  `json:"users"`
		NextCursor string `json:"nextCursor"`
	}
	if err := c.get(ctx, "/api/explore/users", cursorParams(cursor, limit), &out); err != nil {
		return Page[Ref]{}, err
	}
	return Page[Ref]{Items: out.Users, NextCursor: out.NextCursor}, nil
}

// Search runs a full search across posts, users and tags.
func (c *Client) Search(ctx context.Context, query string) (*SearchResults, error) {
	var out SearchResults
	if err := c.get(ctx, "/api/explore/search", url.Values{"query": {query}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchMore continues one kind ("posts", "users" or "tags") of a search
// after the item with id cursor. Items are returned raw since their shape
// depends on kind.
func (c *Client) SearchMore(ctx context.Context, query, kind, cursor string) (*SearchResults, error) {
	params := url.Values{"q": {query}, "type": {kind}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	var out struct {
		Type  string          `json:"type"`
		Items json.RawMessage `json:"items"`
	}
	if err := c.get(ctx, "/api/explore/search/more", params, &out); err != nil {
		return nil, err
	}
	res := &SearchResults{}
	if len(out.Items) == 0 {
		return res, nil
	}
	var err error
	switch out.Type {
	case "posts":
		err = json.Unmarshal(out.Items, &res.Posts)
	case "users":
		err = json.Unmarshal(out.Items, &res.Users)
	case "tags":
		err = json.Unmarshal(out.Items, &res.Tags)
	default:
		err = fmt.Errorf("unknown search kind %q", out.Type)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Activity fetches a numbered page (1-based) of notifications.
func (c *Client) Activity(ctx context.Context, page int) (*ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(ActivityPageSize)},
		"type":  {"all"},
	}
	out := ActivityPage{Page: page}
	if err := c.get(ctx, "/api/activity", params, &out); err != nil {
		return nil, err
	}
	if out.Page == 0 {
		out.Page = page
	}
	return &out, nil
}

// Follows fetches a page of a user's followers or followees.
func (c *Client) Follows(ctx context.Context, userID string, kind FollowKind, cursor string, limit int) (Page[Ref], error) {
	if !kind.Valid() {
		return Page[Ref]{}, fmt.Errorf("unknown follow list %q", kind)
	}
	if limit <= 0 {
		limit = FollowPageSize
	}
	var out map[string]json.RawMessage
	path := "/api/follow/" + url.PathEscape(userID) + "/" + string(kind)
	if err := c.get(ctx, path, cursorParams(cursor, limit), &out); err != nil {
		return Page[Ref]{}, err
	}

	var page Page[Ref]
	if raw, ok := out[string(kind)]; ok {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return Page[Ref]{}, fmt.Errorf("decode %s: %w", kind, err)
		}
	}
	if raw, ok := out["nextCursor"]; ok {
		_ = json.Unmarshal(raw, &page.NextCursor)
	}
	return page, nil
}

// ToggleFollow follows or unfollows userID and returns the new state.
func (c *Client) ToggleFollow(ctx context.Context, userID string) (bool, error) {
	var out struct {
		Following bool `json:"isFollowing"`
	}
	if err := c.post(ctx, "/api/follow/"+url.PathEscape(userID), nil, &out); err != nil {
		return false, err
	}
	return out.Following, nil
}

// ToggleLike likes or unlikes a post and returns the new state.
func (c *Client) ToggleLike(ctx context.Context, postID string) (bool, error) {
	var out struct {
		Liked bool `json:"isLiked"`
	}
	if err := c.post(ctx, "/api/posts/"+url.PathEscape(postID)+"/like", nil, &out); err != nil {
		return false, err
	}
	return out.Liked, nil
}

// Comment adds a comment to a post.
func (c *Client) Comment(ctx context.Context, postID, text string) (*Comment, error) {
	var out struct {
		Comment *Comment `json:"comment"`
	}
	if err := c.post(ctx, "/api/posts/"+url.PathEscape(postID)+"/comment", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return out.Comment, nil
}

// Comments fetches a page of comments on a post.
func (c *Client) Comments(ctx context.Context, postID, cursor string) (Page[Comment], error) {
	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	var out struct {
		Comments   []Comment `json:"comments"`
		NextCursor string    `json:"nextCursor"`
	}
	if err := c.get(ctx, "/api/posts/"+url.PathEscape(postID)+"/comments", params, &out); err != nil {
		return Page[Comment]{}, err
	}
	return Page[Comment]{Items: out.Comments, NextCursor: out.NextCursor}, nil
}

// SharePost records a share on the server.
func (c *Client) SharePost(ctx context.Context, postID string) error {
	return c.post(ctx, "/api/posts/"+url.PathEscape(postID)+"/share", nil, nil)
}
