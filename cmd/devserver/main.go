package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumiforge/vidgallery/internal/config"
	"github.com/lumiforge/vidgallery/internal/devserver"
	"github.com/lumiforge/vidgallery/internal/logger"
)

func main() {
	ctx := context.Background()

	log := logger.New(slog.LevelInfo)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var metas devserver.MetadataStore
	if cfg.Server.PostgresDSN != "" {
		pg, err := devserver.NewPostgresStore(ctx, cfg.Server.PostgresDSN)
		if err != nil {
			slog.Error("Failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		metas = pg
		slog.Info("Using postgres metadata store")
	} else {
		metas = devserver.NewMemoryStore()
		slog.Info("Using in-memory metadata store")
	}

	var presigner devserver.Presigner
	if cfg.Server.S3.Bucket != "" {
		presigner, err = devserver.NewS3Presigner(ctx, cfg.Server.S3)
		if err != nil {
			slog.Error("Failed to initialize s3 presigner", "error", err)
			os.Exit(1)
		}
		slog.Info("Issuing s3 presigned upload urls", "bucket", cfg.Server.S3.Bucket)
	}

	registry := prometheus.NewRegistry()
	server := devserver.NewServer(cfg.Server, metas, presigner, registry, log)

	slog.Info("Starting dev server", "addr", cfg.Server.Addr, "content_dir", cfg.Server.ContentDir)
	if err := http.ListenAndServe(cfg.Server.Addr, server.Handler()); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
