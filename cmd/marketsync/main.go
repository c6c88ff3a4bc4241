package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stock_sync/internal/app/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := commands.NewRootCmd(commands.DefaultEnv(os.Stdout))
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, commands.ErrSyncIncomplete) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}
