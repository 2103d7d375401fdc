// Command server runs the board HTTP API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mungboard/internal/bootstrap"
	"mungboard/internal/config"
	"mungboard/internal/filestore"
	"mungboard/internal/middleware"
	"mungboard/internal/observability"
	"mungboard/internal/seed"
	"mungboard/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	seedDemo := flag.Bool("seed-demo", false, "fill an empty development database with demo data")
	presetPath := flag.String("preset", "", "YAML seed preset used with -seed-demo")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "mungboard-api",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		fatal("Failed to initialize tracing", err)
	}

	ctx := context.Background()
	opts := bootstrap.Options{SeedDemo: *seedDemo}
	if *presetPath != "" {
		if opts.Preset, err = seed.LoadPresetFile(*presetPath); err != nil {
			fatal("Failed to load seed preset", err)
		}
	}

	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, opts)
	if err != nil {
		fatal("Failed to initialize runtime", err)
	}

	files, err := filestore.New(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize attachment store", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb, files)
	if err != nil {
		fatal("Failed to create server", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			middleware.Logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(ctx); err != nil {
			middleware.Logger.Error("Tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil {
		fatal("Server stopped", err)
	}
}

func fatal(msg string, err error) {
	middleware.Logger.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
