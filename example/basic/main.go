package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	securebox "github.com/hnodriturbo/Project-5-Security-Box"
)

func main() {
	cfg, err := securebox.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	box, err := securebox.New(cfg)
	if err != nil {
		log.Fatalf("build box: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := box.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("box exited: %v", err)
	}
}
