package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ducktorrents/internal/config"
	"ducktorrents/internal/realtime"
	"ducktorrents/internal/routes"
	"ducktorrents/internal/watcher"
	"ducktorrents/web"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("Failed to load .env: ", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	if err := os.MkdirAll(cfg.Server.SnapshotDir, 0o755); err != nil {
		log.Fatal("Failed to create snapshot dir: ", err)
	}

	var site fs.FS = web.FS
	if cfg.Server.SiteDir != "" {
		site = os.DirFS(cfg.Server.SiteDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	if cfg.Server.WatchSnapshots {
		w, err := watcher.New(cfg.Server.SnapshotDir, hub, watcher.DefaultDelay)
		if err != nil {
			log.Fatal("Failed to watch snapshot dir: ", err)
		}
		defer w.Close()
		go w.Run(ctx)
	}

	// Setup the routes
	ginRoutes := routes.SetupRoutes(routes.Deps{
		Site:        site,
		SnapshotDir: cfg.Server.SnapshotDir,
		Hub:         hub,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      ginRoutes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on %s", srv.Addr)
	log.Printf("Serving snapshots from %s", cfg.Server.SnapshotDir)
	log.Println("Endpoints:")
	log.Println("  GET    /              static site")
	log.Println("  GET    /torrents.parquet, /torrents.csv")
	log.Println("  GET    /api/snapshot")
	log.Println("  GET    /ws")
	log.Println("  GET    /metrics")
	log.Println("  GET    /health")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server: ", err)
	}
	log.Println("Server stopped")
}
