// Command facaded runs the facade HTTP service with the configuration found
// at the default path.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"facade/internal/config"
	"facade/internal/serverrun"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := serverrun.Run(ctx, cfg, serverrun.Options{}); err != nil {
		log.Fatalf("facaded: %v", err)
	}
}
