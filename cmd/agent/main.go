// Package main provides the entrypoint for the FeastRadar sync agent.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/feastradar/feastradar/internal/agent"
	"github.com/feastradar/feastradar/internal/config"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "feastradar-agent"

	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting FeastRadar agent")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := agent.New(ctx, cfg, agent.Options{
		Version: Version,
		Logger:  log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to assemble agent")
	}

	// SIGINT/SIGTERM cancel the run context; Run drains and returns.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("agent shutdown reported errors")
		os.Exit(1)
	}

	log.Info().Msg("agent stopped")
}
