// File: cmd/deskpilot/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhemmrich/deskpilot/cmd"
)

// osExit allows mocking os.Exit in tests.
var osExit = os.Exit

func main() {
	// Interrupt signals cancel the running task so the agent stops dispatching
	// input before the process dies.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			osExit(0)
		}
		osExit(1)
	}
}
