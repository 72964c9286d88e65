package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/yovo-social/yovo/internal/daemon"
	"github.com/yovo-social/yovo/internal/session"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{SessionName: sessionName, LogLevel: *logLevel}),
		fx.NopLogger,
	)

	app.Run()
}
