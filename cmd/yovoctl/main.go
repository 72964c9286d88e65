package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/yovo-social/yovo/internal/session"
	"github.com/yovo-social/yovo/internal/tui/client"
)

const callTimeout = 15 * time.Second

var (
	sessionFlag string
	jsonFlag    bool
)

var rootCmd = &cobra.Command{
	Use:           "yovoctl",
	Short:         "Control a running yovod session",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "session name (overrides config default)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", errMessage(err))
		os.Exit(1)
	}
}

// withClient connects to the session's daemon and runs fn with a bounded
// context.
func withClient(fn func(ctx context.Context, c *client.Client) error) error {
	name := session.Resolve(sessionFlag)
	if err := session.ValidateName(name); err != nil {
		return err
	}
	c, err := client.New(session.SocketPath(name))
	if err != nil {
		return fmt.Errorf("cannot connect to daemon for session %q: %w", name, err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return fn(ctx, c)
}

// errMessage strips the RPC framing from daemon errors.
func errMessage(err error) string {
	if s, ok := grpcstatus.FromError(err); ok {
		return s.Message()
	}
	return err.Error()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
