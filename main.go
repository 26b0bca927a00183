package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/clipclash/clipclash-backend/app"
	"github.com/clipclash/clipclash-backend/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		application.Close(ctx)
		log.Fatalf("app terminated: %v", err)
	}
	application.Close(ctx)
}
