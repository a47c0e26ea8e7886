package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cpuscale.dev/cli/internal/interfaces/cli"
	"cpuscale.dev/cli/internal/interfaces/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, di.NewCLIContainer)
	stop()
	os.Exit(code)
}
