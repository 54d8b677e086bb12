package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"zombie-siege/internal/app"
	"zombie-siege/internal/config"
	"zombie-siege/internal/telemetry"
)

func main() {
	logger := telemetry.WrapLogger(log.Default())

	cfg, problems := config.Load()
	for _, problem := range problems {
		logger.Printf("config: %v", problem)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Options{Logger: logger, Config: cfg}); err != nil {
		log.Fatalf("%v", err)
	}
}
