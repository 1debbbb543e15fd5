package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"charmcli/internal/app"
	"charmcli/internal/config"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file (defaults to charm.yaml or config/charm.yaml)")
	port := flag.Int("port", 0, "listen port (overrides server.port)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	serveErr := application.Serve(ctx)
	stop()

	if err := application.Close(); err != nil {
		application.Logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	if serveErr != nil {
		application.Logger.Error("server stopped with error", slog.String("error", serveErr.Error()))
		os.Exit(1)
	}
}
