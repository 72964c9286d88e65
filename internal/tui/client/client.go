package client

import (
	"fmt"

	"google.golang.org/grpc"

	"github.com/yovo-social/yovo/internal/rpc"
)

// Client wraps gRPC connections to the daemon.
type Client struct {
	conn    *grpc.ClientConn
	Session *rpc.SessionClient
	Chat    *rpc.ChatClient
	Feed    *rpc.FeedClient
}

// New dials the daemon's Unix domain socket and returns typed service clients.
func New(socketPath string) (*Client, error) {
	conn, err := rpc.Dial(socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	return &Client{
		conn:    conn,
		Session: rpc.NewSessionClient(conn),
		Chat:    rpc.NewChatClient(conn),
		Feed:    rpc.NewFeedClient(conn),
	}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
