// Package session is the client's top-level controller. It owns the asset
// cache controller, the queryable data source and the search pipeline for one
// run of the front end and hands them to whoever needs them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"ducktorrents/internal/assetcache"
	"ducktorrents/internal/cache"
	"ducktorrents/internal/cachestore"
	"ducktorrents/internal/config"
	"ducktorrents/internal/database"
	"ducktorrents/internal/realtime"
	"ducktorrents/internal/search"
	"ducktorrents/internal/snapshot"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Status texts shown by the front end.
const (
	StatusInitializing = "Initializing"
	StatusIndexLoaded  = "Index Loaded"
	StatusCSVFallback  = "CSV Fallback"
	StatusLoadError    = "Error Loading Data"
	StatusInitFailed   = "Initialization Failed"
)

// StatusOf maps an initialization error to the status shown to the user.
func StatusOf(err error) string {
	if errors.Is(err, snapshot.ErrInitFailed) {
		return StatusLoadError
	}
	return StatusInitFailed
}

// Deps are the collaborators of a session. Storage is required.
type Deps struct {
	Storage cachestore.Storage
	// Network performs real fetches; nil means http.DefaultTransport.
	Network http.RoundTripper
	// DB is the queryable data source; nil opens a private in-memory one.
	DB *gorm.DB
	// Sink receives pipeline results; without it only Search works.
	Sink   search.Sink
	Logger *slog.Logger
}

// Session is constructed once at startup.
type Session struct {
	id     string
	cfg    config.ClientConfig
	scope  *url.URL
	logger *slog.Logger

	controller *assetcache.Controller
	loader     *snapshot.Loader
	db         *gorm.DB
	ownDB      bool
	results    *search.ResultCache
	dispatcher *search.Dispatcher
	pipeline   *search.Pipeline

	mu     sync.RWMutex
	status string
	source string

	reloadMu sync.Mutex
}

// Scope parses the origin the client is served from. The path always ends
// with a slash so relative asset paths resolve below it.
func Scope(origin string) (*url.URL, error) {
	scope, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin %q: %w", origin, err)
	}
	if scope.Scheme == "" || scope.Host == "" {
		return nil, fmt.Errorf("origin %q must be an absolute URL", origin)
	}
	if !strings.HasSuffix(scope.Path, "/") {
		scope.Path += "/"
	}
	return scope, nil
}

// ControllerOptions derives the asset cache controller settings from cfg.
func ControllerOptions(cfg config.ClientConfig, scope *url.URL, logger *slog.Logger) assetcache.Options {
	return assetcache.Options{
		Scope:           scope,
		Prefix:          cfg.CachePrefix,
		Version:         cfg.CacheVersion,
		StaticAssets:    cfg.StaticAssets,
		SkipWaiting:     cfg.SkipWaiting,
		SyncTag:         cfg.SyncTag,
		SyncPath:        cfg.SnapshotPath,
		MinSyncInterval: cfg.MinSyncPeriod,
		Logger:          logger,
	}
}

// New installs and activates the asset cache controller, loads the snapshot
// into the data source and wires the search pipeline. A snapshot that cannot
// be loaded is fatal; StatusOf tells which status to show.
func New(ctx context.Context, cfg config.ClientConfig, deps Deps) (*Session, error) {
	if deps.Storage == nil {
		return nil, errors.New("session: cache storage is required")
	}
	scope, err := Scope(cfg.Origin)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("session", id))

	s := &Session{id: id, cfg: cfg, scope: scope, logger: log, status: StatusInitializing}

	s.controller = assetcache.New(deps.Storage, deps.Network, ControllerOptions(cfg, scope, log))
	s.controller.Install(ctx)
	if s.controller.State() != assetcache.StateActivated {
		// no other instance of the front end is holding the previous version
		s.controller.Activate(ctx)
	}

	s.db = deps.DB
	if s.db == nil {
		s.db, err = database.Open(database.MemoryDSN, logger.Silent)
		if err != nil {
			s.setStatus(StatusInitFailed)
			return nil, err
		}
		s.ownDB = true
	}

	s.loader = &snapshot.Loader{
		Client:   s.controller.Client(),
		BaseURL:  scope,
		Primary:  cfg.SnapshotPath,
		Fallback: cfg.FallbackPath,
		Timeout:  cfg.InitTimeout,
		Logger:   log,
	}
	if err := s.load(ctx); err != nil {
		s.setStatus(StatusOf(err))
		s.closeDB()
		return nil, err
	}

	s.results, err = search.NewResultCache(cache.Policy(cfg.ResultCachePolicy), cfg.ResultCacheSize)
	if err != nil {
		s.closeDB()
		return nil, err
	}
	source := search.NewGormSource(s.db, search.SourceOptions{IncludeDead: !cfg.FilterDeadInDefault})
	s.dispatcher = search.NewDispatcher(source, s.results)
	if deps.Sink != nil {
		s.pipeline = search.NewPipeline(context.WithoutCancel(ctx), s.dispatcher, deps.Sink, cfg.DebounceDelay)
	}
	return s, nil
}

// load fetches the snapshot through the controller and replaces the row-set.
func (s *Session) load(ctx context.Context) error {
	res, err := s.loader.Load(ctx)
	if err != nil {
		return err
	}
	if err := snapshot.Ingest(ctx, s.db, res.Rows); err != nil {
		return fmt.Errorf("%w: %w", snapshot.ErrInitFailed, err)
	}

	status := StatusIndexLoaded
	if res.Format == snapshot.FormatCSV {
		status = StatusCSVFallback
	}
	s.mu.Lock()
	s.status = status
	s.source = res.URL
	s.mu.Unlock()
	s.logger.Info("snapshot loaded", slog.String("url", res.URL), slog.Int("rows", len(res.Rows)))
	return nil
}

func (s *Session) ID() string { return s.id }

// Status is the text of the persistent status indicator.
func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SnapshotURL is where the current row-set was loaded from.
func (s *Session) SnapshotURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *Session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Controller returns the asset cache controller of the session.
func (s *Session) Controller() *assetcache.Controller { return s.controller }

// ResultCacheStats reports result cache hits and misses so far.
func (s *Session) ResultCacheStats() search.Stats { return s.results.Stats() }

// Input feeds a changed query text to the debounced pipeline.
func (s *Session) Input(text string) {
	if s.pipeline != nil {
		s.pipeline.Input(text)
	}
}

// Commit searches text immediately.
func (s *Session) Commit(text string) {
	if s.pipeline != nil {
		s.pipeline.Commit(text)
	}
}

// Search runs one query synchronously, bypassing the pipeline.
func (s *Session) Search(ctx context.Context, text string) (search.Result, error) {
	return s.dispatcher.Search(ctx, text)
}

// Reload fetches the snapshot again, replaces the row-set and drops cached
// results, which no longer describe the data.
func (s *Session) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	if err := s.load(ctx); err != nil {
		s.logger.Error("reload failed", slog.Any("error", err))
		return err
	}
	s.results.Clear()
	return nil
}

// Sync runs the background sync of the snapshot and reloads when the cached
// copy was replaced. It reports whether the data changed hands.
func (s *Session) Sync(ctx context.Context) (bool, error) {
	if !s.controller.BackgroundSync(ctx, s.cfg.SyncTag) {
		return false, nil
	}
	return true, s.Reload(ctx)
}

// Maintenance sends a maintenance action to the controller.
func (s *Session) Maintenance(ctx context.Context, action string) (*assetcache.Reply, error) {
	return s.controller.HandleMessage(ctx, assetcache.Message{Action: action})
}

// EventsURL is the websocket URL snapshot events arrive on.
func (s *Session) EventsURL() (string, error) {
	u, err := s.scope.Parse(s.cfg.EventsPath)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// Watch follows snapshot events and syncs on each of them and whenever the
// event stream comes back after a disconnect. It blocks until ctx is done;
// onSync is called after every sync that replaced the data.
func (s *Session) Watch(ctx context.Context, onSync func()) error {
	eventsURL, err := s.EventsURL()
	if err != nil {
		return err
	}
	resync := func(reason string) {
		updated, err := s.Sync(ctx)
		if err != nil {
			return
		}
		s.logger.Debug("sync", slog.String("reason", reason), slog.Bool("updated", updated))
		if updated && onSync != nil {
			onSync()
		}
	}
	sub := &realtime.Subscriber{
		URL:    eventsURL,
		Logger: s.logger,
		OnEvent: func(ev realtime.Event) {
			if ev.Type == realtime.EventSnapshotUpdated {
				resync(ev.File)
			}
		},
		OnConnect: func(reconnect bool) {
			if reconnect {
				resync("reconnect")
			}
		},
	}
	return sub.Run(ctx)
}

// Close stops the pipeline, waits for background revalidations and releases
// the data source when the session opened it.
func (s *Session) Close() {
	if s.pipeline != nil {
		s.pipeline.Close()
	}
	s.controller.Wait()
	s.closeDB()
}

func (s *Session) closeDB() {
	if !s.ownDB || s.db == nil {
		return
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
