package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/papercomputeco/chatbox/cmd/chatbox/rootcmder"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootcmder.NewRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
