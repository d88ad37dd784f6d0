package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	securebox "github.com/hnodriturbo/Project-5-Security-Box"
)

// auditPrinter receives every access decision instead of Postgres.
type auditPrinter struct{}

func (auditPrinter) WriteBatch(events []securebox.SensorEvent) error {
	for _, e := range events {
		fmt.Printf("%s uid=%s allowed=%v method=%s label=%q\n",
			e.Timestamp.Format(time.RFC3339),
			e.Identifier,
			e.Allowed,
			e.Method,
			e.Label,
		)
	}
	return nil
}

func main() {
	cfg, err := securebox.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	box, err := securebox.New(cfg, securebox.WithAudit(auditPrinter{}))
	if err != nil {
		log.Fatalf("build box: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := box.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("box exited: %v", err)
	}
}
