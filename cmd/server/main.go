package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/saveole/timecal/internal/cmd/server"
)

func main() {
	logger := log.New(os.Stderr, "[TIMECAL] ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, os.Args[1:], logger); err != nil {
		logger.Fatalf("server: %v", err)
	}
}
