package assetcache

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"ducktorrents/internal/cachestore"
	"ducktorrents/internal/metrics"

	"golang.org/x/time/rate"
)

// State is the lifecycle state of a controller version.
type State int

const (
	StateNew State = iota
	StateInstalled
	StateActivated
)

func (s State) String() string {
	switch s {
	case StateInstalled:
		return "installed"
	case StateActivated:
		return "activated"
	}
	return "new"
}

// Options configures a Controller.
type Options struct {
	// Scope is the origin and base path the client is served from; relative
	// asset paths resolve against it.
	Scope *url.URL
	// Prefix and Version name the generations: <prefix>-v<version> and
	// <prefix>-data-v<version>.
	Prefix  string
	Version string
	// StaticAssets are pre-cached on install.
	StaticAssets []string
	// SkipWaiting activates right after a successful install.
	SkipWaiting bool
	// SyncTag and SyncPath drive BackgroundSync.
	SyncTag  string
	SyncPath string
	// MinSyncInterval spaces background syncs; zero disables the limit.
	MinSyncInterval time.Duration
	Logger          *slog.Logger
}

// Controller is an http.RoundTripper that resolves every GET of the client
// through the strategy of its resource class. Until it is activated it
// passes requests straight to the network.
type Controller struct {
	opts       Options
	storage    cachestore.Storage
	next       http.RoundTripper
	strategies *Strategies
	logger     *slog.Logger
	limiter    *rate.Limiter

	mu          sync.RWMutex
	state       State
	skipWaiting bool
}

// New creates a controller over storage; next performs real network fetches.
func New(storage cachestore.Storage, next http.RoundTripper, opts Options) *Controller {
	if next == nil {
		next = http.DefaultTransport
	}
	if opts.Prefix == "" {
		opts.Prefix = "ducktorrents"
	}
	if opts.Scope == nil {
		opts.Scope = &url.URL{Path: "/"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "assetcache"), slog.String("version", opts.Version))

	c := &Controller{
		opts:       opts,
		storage:    storage,
		next:       next,
		strategies: &Strategies{Next: next, Logger: logger},
		logger:     logger,
	}
	if opts.MinSyncInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.MinSyncInterval), 1)
	}
	return c
}

// StaticCacheName is the generation holding the app shell and other assets.
func (c *Controller) StaticCacheName() string {
	return c.opts.Prefix + "-v" + c.opts.Version
}

// DataCacheName is the generation holding snapshot files.
func (c *Controller) DataCacheName() string {
	return c.opts.Prefix + "-data-v" + c.opts.Version
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Client returns an http.Client whose fetches go through the controller.
func (c *Controller) Client() *http.Client {
	return &http.Client{Transport: c}
}

// Resolve turns an asset path into an absolute URL within the scope.
func (c *Controller) Resolve(ref string) (*url.URL, error) {
	return c.opts.Scope.Parse(ref)
}

// Wait blocks until background revalidations started so far have finished.
func (c *Controller) Wait() {
	c.strategies.Wait()
}

// RoundTrip implements http.RoundTripper.
func (c *Controller) RoundTrip(req *http.Request) (*http.Response, error) {
	if c.State() != StateActivated {
		metrics.AssetRequests.WithLabelValues(string(ClassPassthrough), string(OutcomePassthrough)).Inc()
		return c.next.RoundTrip(req)
	}

	class := Classify(req, c.opts.Scope)
	if class == ClassPassthrough {
		metrics.AssetRequests.WithLabelValues(string(class), string(OutcomePassthrough)).Inc()
		return c.next.RoundTrip(req)
	}

	name := c.StaticCacheName()
	if class == ClassData {
		name = c.DataCacheName()
	}
	gen, err := c.storage.Open(req.Context(), name)
	if err != nil {
		// no cache to work with, behave like a plain client
		c.logger.Warn("open cache failed", slog.String("cache", name), slog.Any("error", err))
		metrics.AssetRequests.WithLabelValues(string(class), string(OutcomePassthrough)).Inc()
		return c.next.RoundTrip(req)
	}

	var (
		resp    *http.Response
		outcome Outcome
	)
	switch class.Strategy() {
	case StrategyStaleWhileRevalidate:
		resp, outcome = c.strategies.StaleWhileRevalidate(req, gen)
	case StrategyNetworkFirst:
		resp, outcome = c.strategies.NetworkFirst(req, gen)
	default:
		resp, outcome = c.strategies.CacheFirst(req, gen)
	}
	c.logger.Debug("resolved",
		slog.String("url", req.URL.String()),
		slog.String("class", string(class)),
		slog.String("outcome", string(outcome)),
	)
	metrics.AssetRequests.WithLabelValues(string(class), string(outcome)).Inc()
	return resp, nil
}

func (c *Controller) isOwnCache(name string) bool {
	return name == c.StaticCacheName() || name == c.DataCacheName()
}
