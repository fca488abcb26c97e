package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ducktorrents/internal/assetcache"
	"ducktorrents/internal/cachestore"
	"ducktorrents/internal/config"
	"ducktorrents/internal/database"
	"ducktorrents/internal/render"
	"ducktorrents/internal/session"
	"ducktorrents/internal/tui"

	"github.com/gdamore/tcell/v2"
)

type options struct {
	configPath string
	query      string
	format     string
	width      int
	clearCache bool
	cacheSize  bool
	sync       bool
	memory     bool
	logPath    string
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.yml", "path to the YAML config file")
	flag.StringVar(&opts.query, "q", "", "run one search and print the results instead of starting the terminal page")
	flag.StringVar(&opts.format, "format", "text", "output of -q: text, html or json")
	flag.IntVar(&opts.width, "width", 100, "line width of -q text output")
	flag.BoolVar(&opts.clearCache, "clear-cache", false, "delete every cache generation and exit")
	flag.BoolVar(&opts.cacheSize, "cache-size", false, "print the number of cached snapshot files and exit")
	flag.BoolVar(&opts.sync, "sync", false, "run the background snapshot sync once and exit")
	flag.BoolVar(&opts.memory, "memory", false, "keep caches in memory instead of the cache database")
	flag.StringVar(&opts.logPath, "log", "", "write logs to this file (the terminal page logs nowhere by default)")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("Failed to load .env: ", err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	storage, err := openStorage(cfg, opts.memory)
	if err != nil {
		log.Fatal("Failed to open cache storage: ", err)
	}

	logger, closeLog, err := newLogger(opts)
	if err != nil {
		log.Fatal("Failed to open log file: ", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.clearCache:
		err = maintenance(ctx, cfg.Client, storage, logger, assetcache.ActionClearCache)
	case opts.cacheSize:
		err = maintenance(ctx, cfg.Client, storage, logger, assetcache.ActionGetCacheSize)
	case opts.sync:
		err = syncOnce(ctx, cfg.Client, storage, logger)
	case opts.query != "":
		err = oneShot(ctx, cfg.Client, storage, logger, opts)
	default:
		err = interactive(ctx, cfg.Client, storage, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "tsearch:", err)
		os.Exit(1)
	}
}

func newLogger(opts options) (*slog.Logger, func(), error) {
	interactive := opts.query == "" && !opts.clearCache && !opts.cacheSize && !opts.sync
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = io.Discard
	closeFn := func() {}
	switch {
	case opts.logPath != "":
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = func() { f.Close() }
	case !interactive:
		w = os.Stderr
		if !opts.verbose {
			level = slog.LevelWarn
		}
	}
	if interactive {
		// the page owns the terminal; database lines go where slog goes
		log.SetOutput(w)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}

func openStorage(cfg *config.Config, memory bool) (cachestore.Storage, error) {
	if memory || cfg.Client.CacheDB == "" {
		return cachestore.NewMemoryStorage(), nil
	}
	db, err := database.Open(cfg.Client.CacheDB, database.ParseLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	return cachestore.NewSQLStorage(db), nil
}

// maintenance sends one message to a controller of the configured version
// without loading a snapshot, and prints the JSON reply.
func maintenance(ctx context.Context, cfg config.ClientConfig, storage cachestore.Storage, logger *slog.Logger, action string) error {
	scope, err := session.Scope(cfg.Origin)
	if err != nil {
		return err
	}
	ctrl := assetcache.New(storage, nil, session.ControllerOptions(cfg, scope, logger))
	msg, err := json.Marshal(assetcache.Message{Action: action})
	if err != nil {
		return err
	}
	reply, err := ctrl.HandleJSON(ctx, msg)
	if err != nil {
		return err
	}
	fmt.Println(string(reply))
	return nil
}

func syncOnce(ctx context.Context, cfg config.ClientConfig, storage cachestore.Storage, logger *slog.Logger) error {
	s, err := session.New(ctx, cfg, session.Deps{Storage: storage, Logger: logger})
	if err != nil {
		return fmt.Errorf("%s: %w", session.StatusOf(err), err)
	}
	defer s.Close()

	updated, err := s.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("updated: %t\n", updated)
	return nil
}

func oneShot(ctx context.Context, cfg config.ClientConfig, storage cachestore.Storage, logger *slog.Logger, opts options) error {
	s, err := session.New(ctx, cfg, session.Deps{Storage: storage, Logger: logger})
	if err != nil {
		return fmt.Errorf("%s: %w", session.StatusOf(err), err)
	}
	defer s.Close()

	res, err := s.Search(ctx, opts.query)
	if err != nil {
		return err
	}
	view := render.Build(res.Rows, res.Duration, res.IsDefaultView, res.Term)

	switch opts.format {
	case "html":
		return render.WriteHTML(os.Stdout, view)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"status":      s.Status(),
			"meta":        view.Meta,
			"default":     res.IsDefaultView,
			"duration_ms": float64(res.Duration.Microseconds()) / 1000,
			"torrents":    res.Rows,
		})
	default:
		return render.WriteText(os.Stdout, view, opts.width)
	}
}

func interactive(ctx context.Context, cfg config.ClientConfig, storage cachestore.Storage, logger *slog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	app := tui.New(screen)
	app.ShowStatus(session.StatusInitializing)

	s, err := session.New(ctx, cfg, session.Deps{Storage: storage, Sink: app, Logger: logger})
	if err != nil {
		logger.Error("initialization failed", slog.Any("error", err))
		return app.RunFailed(ctx, session.StatusOf(err), err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = s.Watch(ctx, func() { app.Notify("Snapshot updated", true) })
	}()
	return app.Run(ctx, s)
}
