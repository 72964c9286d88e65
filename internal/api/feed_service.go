package api

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/yovo-social/yovo/internal/paging"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/share"
)

// FeedService implements rpc.FeedServer.
type FeedService struct {
	client *remote.Client
	links  *share.Links
	logger *zap.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(client *remote.Client, links *share.Links, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{client: client, links: links, logger: logger}
}

// more reports whether a cursor page may be followed by another.
func more(n, limit int, next string) bool {
	return next != "" && !paging.Exhausted(n, limit)
}

func limitOr(limit, def int) int {
	if limit > 0 {
		return limit
	}
	return def
}

func (s *FeedService) Feed(ctx context.Context, req *rpc.CursorRequest) (*rpc.PostsPage, error) {
	limit := limitOr(req.Limit, remote.FeedPageSize)
	page, err := s.client.Feed(ctx, req.Cursor, limit)
	if err != nil {
		return nil, toStatus("feed", err)
	}
	return &rpc.PostsPage{
		Posts:      page.Posts,
		NextCursor: page.NextCursor,
		HasMore:    page.HasNextPage && page.NextCursor != "",
	}, nil
}

func (s *FeedService) Post(ctx context.Context, req *rpc.PostRequest) (*remote.Post, error) {
	if err := required("post_id", req.PostID); err != nil {
		return nil, err
	}
	p, err := s.client.Post(ctx, req.PostID)
	if err != nil {
		return nil, toStatus("post", err)
	}
	if p == nil {
		return nil, grpcstatus.Errorf(codes.NotFound, "post %q not found", req.PostID)
	}
	return p, nil
}

func (s *FeedService) Explore(ctx context.Context, _ *rpc.Empty) (*remote.ExploreLanding, error) {
	landing, err := s.client.Explore(ctx)
	if err != nil {
		return nil, toStatus("explore", err)
	}
	return landing, nil
}

func (s *FeedService) ExplorePosts(ctx context.Context, req *rpc.CursorRequest) (*rpc.PostsPage, error) {
	limit := limitOr(req.Limit, remote.ExplorePostsPageSize)
	page, err := s.client.ExplorePosts(ctx, req.Cursor, limit)
	if err != nil {
		return nil, toStatus("explore posts", err)
	}
	return &rpc.PostsPage{
		Posts:      page.Items,
		NextCursor: page.NextCursor,
		HasMore:    more(len(page.Items), limit, page.NextCursor),
	}, nil
}

func (s *FeedService) ExploreUsers(ctx context.Context, req *rpc.CursorRequest) (*rpc.UsersPage, error) {
	limit := limitOr(req.Limit, remote.ExploreUsersPageSize)
	page, err := s.client.ExploreUsers(ctx, req.Cursor, limit)
	if err != nil {
		return nil, toStatus("explore users", err)
	}
	return &rpc.UsersPage{
		Users:      page.Items,
		NextCursor: page.NextCursor,
		HasMore:    more(len(page.Items), limit, page.NextCursor),
	}, nil
}

func (s *FeedService) Search(ctx context.Context, req *rpc.SearchRequest) (*remote.SearchResults, error) {
	q := strings.TrimSpace(req.Query)
	if err := required("query", q); err != nil {
		return nil, err
	}
	var (
		res *remote.SearchResults
		err error
	)
	if req.Kind != "" {
		res, err = s.client.SearchMore(ctx, q, req.Kind, req.Cursor)
	} else {
		res, err = s.client.Search(ctx, q)
	}
	if err != nil {
		return nil, toStatus("search", err)
	}
	return res, nil
}

func (s *FeedService) Activity(ctx context.Context, req *rpc.ActivityRequest) (*remote.ActivityPage, error) {
	page, err := s.client.Activity(ctx, req.Page)
	if err != nil {
		return nil, toStatus("activity", err)
	}
	return page, nil
}

func (s *FeedService) Follows(ctx context.Context, req *rpc.FollowsRequest) (*rpc.UsersPage, error) {
	if err := required("user_id", req.UserID); err != nil {
		return nil, err
	}
	if !req.Kind.Valid() {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "kind must be %q or %q", remote.Followers, remote.Following)
	}
	limit := limitOr(req.Limit, remote.FollowPageSize)
	page, err := s.client.Follows(ctx, req.UserID, req.Kind, req.Cursor, limit)
	if err != nil {
		return nil, toStatus("follows", err)
	}
	return &rpc.UsersPage{
		Users:      page.Items,
		NextCursor: page.NextCursor,
		HasMore:    more(len(page.Items), limit, page.NextCursor),
	}, nil
}

func (s *FeedService) ToggleFollow(ctx context.Context, req *rpc.UserRequest) (*rpc.ToggleResponse, error) {
	if err := required("user_id", req.UserID); err != nil {
		return nil, err
	}
	on, err := s.client.ToggleFollow(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("toggle follow", err)
	}
	return &rpc.ToggleResponse{Active: on}, nil
}

func (s *FeedService) Like(ctx context.Context, req *rpc.PostRequest) (*rpc.ToggleResponse, error) {
	if err := required("post_id", req.PostID); err != nil {
		return nil, err
	}
	on, err := s.client.ToggleLike(ctx, req.PostID)
	if err != nil {
		return nil, toStatus("like", err)
	}
	return &rpc.ToggleResponse{Active: on}, nil
}

func (s *FeedService) Comment(ctx context.Context, req *rpc.CommentRequest) (*rpc.CommentResponse, error) {
	if err := required("post_id", req.PostID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if err := required("text", text); err != nil {
		return nil, err
	}
	c, err := s.client.Comment(ctx, req.PostID, text)
	if err != nil {
		return nil, toStatus("comment", err)
	}
	return &rpc.CommentResponse{Comment: c}, nil
}

func (s *FeedService) Comments(ctx context.Context, req *rpc.PostRequest) (*rpc.CommentsPage, error) {
	if err := required("post_id", req.PostID); err != nil {
		return nil, err
	}
	page, err := s.client.Comments(ctx, req.PostID, req.Cursor)
	if err != nil {
		return nil, toStatus("comments", err)
	}
	return &rpc.CommentsPage{
		Comments:   page.Items,
		NextCursor: page.NextCursor,
		HasMore:    page.NextCursor != "",
	}, nil
}

func (s *FeedService) Profile(ctx context.Context, req *rpc.UserRequest) (*remote.Profile, error) {
	if err := required("user_id", req.UserID); err != nil {
		return nil, err
	}
	p, err := s.client.Profile(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("profile", err)
	}
	return p, nil
}

// Share builds a share link for a post or profile. Sharing a post records
// the share on the server; a failure there does not block the link.
func (s *FeedService) Share(ctx context.Context, req *rpc.ShareRequest) (*rpc.ShareResponse, error) {
	var resp rpc.ShareResponse
	switch {
	case req.PostID != "":
		resp.URL = s.links.Post(req.PostID)
		if err := s.client.SharePost(ctx, req.PostID); err != nil {
			s.logger.Warn("record share", zap.String("post", req.PostID), zap.Error(err))
		}
	case req.UserID != "":
		resp.URL = s.links.Profile(req.UserID)
	default:
		return nil, grpcstatus.Error(codes.InvalidArgument, "post_id or user_id is required")
	}

	if req.Target != "" {
		intent, err := share.Intent(share.Target(req.Target), resp.URL)
		if errors.Is(err, share.ErrUnknownTarget) {
			return nil, grpcstatus.Errorf(codes.InvalidArgument, "unknown share target %q", req.Target)
		}
		resp.Intent = intent
	}
	if req.QR {
		qr, err := share.QR(resp.URL)
		if err != nil {
			return nil, toStatus("render qr", err)
		}
		resp.QR = qr
	}
	return &resp, nil
}
