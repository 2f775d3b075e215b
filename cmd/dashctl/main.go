// dashctl talks to the remote tailoring service from a terminal.
//
//	go run ./cmd/dashctl login --email me@example.com
//	go run ./cmd/dashctl list workshops
//	go run ./cmd/dashctl export workshop <id> --format txt
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dashctl:", err)
		os.Exit(1)
	}
}
