package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"article-extract/internal/app"
)

func main() {
	deps, err := app.BuildRedif()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	msg, err := deps.Fetcher.Fetch(ctx)
	if err != nil {
		deps.Log.Error("redif download failed", "err", err)
		os.Exit(1)
	}
	fmt.Println(msg)
}
