package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Proton-105/geogate/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.ExecuteContext(ctx, version)
}
