package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/yovo-social/yovo/internal/remote"
)

// FeedServiceName is the fully-qualified service name on the daemon socket.
const FeedServiceName = "yovo.v1.FeedService"

// FeedServer is the daemon side of the feed service.
type FeedServer interface {
	Feed(context.Context, *CursorRequest) (*PostsPage, error)
	Post(context.Context, *PostRequest) (*remote.Post, error)
	Explore(context.Context, *Empty) (*remote.ExploreLanding, error)
	ExplorePosts(context.Context, *CursorRequest) (*PostsPage, error)
	ExploreUsers(context.Context, *CursorRequest) (*UsersPage, error)
	Search(context.Context, *SearchRequest) (*remote.SearchResults, error)
	Activity(context.Context, *ActivityRequest) (*remote.ActivityPage, error)
	Follows(context.Context, *FollowsRequest) (*UsersPage, error)
	ToggleFollow(context.Context, *UserRequest) (*ToggleResponse, error)
	Like(context.Context, *PostRequest) (*ToggleResponse, error)
	Comment(context.Context, *CommentRequest) (*CommentResponse, error)
	Comments(context.Context, *PostRequest) (*CommentsPage, error)
	Profile(context.Context, *UserRequest) (*remote.Profile, error)
	Share(context.Context, *ShareRequest) (*ShareResponse, error)
}

// FeedServiceDesc describes the feed service.
var FeedServiceDesc = grpc.ServiceDesc{
	ServiceName: FeedServiceName,
	HandlerType: (*FeedServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(FeedServiceName, "Feed", FeedServer.Feed),
		unary(FeedServiceName, "Post", FeedServer.Post),
		unary(FeedServiceName, "Explore", FeedServer.Explore),
		unary(FeedServiceName, "ExplorePosts", FeedServer.ExplorePosts),
		unary(FeedServiceName, "ExploreUsers", FeedServer.ExploreUsers),
		unary(FeedServiceName, "Search", FeedServer.Search),
		unary(FeedServiceName, "Activity", FeedServer.Activity),
		unary(FeedServiceName, "Follows", FeedServer.Follows),
		unary(FeedServiceName, "ToggleFollow", FeedServer.ToggleFollow),
		unary(FeedServiceName, "Like", FeedServer.Like),
		unary(FeedServiceName, "Comment", FeedServer.Comment),
		unary(FeedServiceName, "Comments", FeedServer.Comments),
		unary(FeedServiceName, "Profile", FeedServer.Profile),
		unary(FeedServiceName, "Share", FeedServer.Share),
	},
	Metadata: "yovo/v1/feed",
}

// RegisterFeedServer registers srv on s.
func RegisterFeedServer(s grpc.ServiceRegistrar, srv FeedServer) {
	s.RegisterService(&FeedServiceDesc, srv)
}

// FeedClient calls the feed service.
type FeedClient struct {
	cc grpc.ClientConnInterface
}

// NewFeedClient wraps a connection made with Dial.
func NewFeedClient(cc grpc.ClientConnInterface) *FeedClient {
	return &FeedClient{cc: cc}
}

func (c *FeedClient) method(name string) string { return "/" + FeedServiceName + "/" + name }

func (c *FeedClient) Feed(ctx context.Context, in *CursorRequest, opts ...grpc.CallOption) (*PostsPage, error) {
	return invoke[PostsPage](ctx, c.cc, c.method("Feed"), in, opts...)
}

func (c *FeedClient) Post(ctx context.Context, in *PostRequest, opts ...grpc.CallOption) (*remote.Post, error) {
	return invoke[remote.Post](ctx, c.cc, c.method("Post"), in, opts...)
}

func (c *FeedClient) Explore(ctx context.Context, opts ...grpc.CallOption) (*remote.ExploreLanding, error) {
	return invoke[remote.ExploreLanding](ctx, c.cc, c.method("Explore"), &Empty{}, opts...)
}

func (c *FeedClient) ExplorePosts(ctx context.Context, in *CursorRequest, opts ...grpc.CallOption) (*PostsPage, error) {
	return invoke[PostsPage](ctx, c.cc, c.method("ExplorePosts"), in, opts...)
}

func (c *FeedClient) ExploreUsers(ctx context.Context, in *CursorRequest, opts ...grpc.CallOption) (*UsersPage, error) {
	return invoke[UsersPage](ctx, c.cc, c.method("ExploreUsers"), in, opts...)
}

func (c *FeedClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*remote.SearchResults, error) {
	return invoke[remote.SearchResults](ctx, c.cc, c.method("Search"), in, opts...)
}

func (c *FeedClient) Activity(ctx context.Context, in *ActivityRequest, opts ...grpc.CallOption) (*remote.ActivityPage, error) {
	return invoke[remote.ActivityPage](ctx, c.cc, c.method("Activity"), in, opts...)
}

func (c *FeedClient) Follows(ctx context.Context, in *FollowsRequest, opts ...grpc.CallOption) (*UsersPage, error) {
	return invoke[UsersPage](ctx, c.cc, c.method("Follows"), in, opts...)
}

func (c *FeedClient) ToggleFollow(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*ToggleResponse, error) {
	return invoke[ToggleResponse](ctx, c.cc, c.method("ToggleFollow"), in, opts...)
}

func (c *FeedClient) Like(ctx context.Context, in *PostRequest, opts ...grpc.CallOption) (*ToggleResponse, error) {
	return invoke[ToggleResponse](ctx, c.cc, c.method("Like"), in, opts...)
}

func (c *FeedClient) Comment(ctx context.Context, in *CommentRequest, opts ...grpc.CallOption) (*CommentResponse, error) {
	return invoke[CommentResponse](ctx, c.cc, c.method("Comment"), in, opts...)
}

func (c *FeedClient) Comments(ctx context.Context, in *PostRequest, opts ...grpc.CallOption) (*CommentsPage, error) {
	return invoke[CommentsPage](ctx, c.cc, c.method("Comments"), in, opts...)
}

func (c *FeedClient) Profile(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*remote.Profile, error) {
	return invoke[remote.Profile](ctx, c.cc, c.method("Profile"), in, opts...)
}

func (c *FeedClient) Share(ctx context.Context, in *ShareRequest, opts ...grpc.CallOption) (*ShareResponse, error) {
	return invoke[ShareResponse](ctx, c.cc, c.method("Share"), in, opts...)
}
