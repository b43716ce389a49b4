package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"panne/internal/auth"
	"panne/internal/blob"
	"panne/internal/config"
	"panne/internal/db"
	httpx "panne/internal/http"
	"panne/internal/jobs"
	"panne/internal/logger"
	"panne/internal/note"
)

func main() {
	cfg, _ := config.Load()
	logger.Setup(cfg.LogLevel)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		slog.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var uploader blob.Uploader
	if cfg.S3AccessKey != "" {
		up, err := blob.NewS3Uploader(ctx, cfg)
		if err != nil {
			slog.Error("blob store init failed", "err", err)
			os.Exit(1)
		}
		uploader = up
	} else {
		slog.Warn("no S3 credentials configured, image upload disabled")
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	r := httpx.NewRouter(cfg, gdb, jwtSvc, uploader)

	// repair worker: purge orphans, reconcile drifted note counts
	worker := &jobs.Worker{
		ID:             "worker-1",
		Queue:          &jobs.Repo{DB: gdb},
		Store:          note.NewGormStore(gdb),
		DriftScanEvery: 10 * time.Minute,
	}
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
