package assetcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"ducktorrents/internal/cachestore"

	"golang.org/x/sync/errgroup"
)

// Install fills the static generation with the static assets and opens the
// data generation empty, side by side. Population is all or nothing; a
// failure is logged and leaves the version installed but waiting.
func (c *Controller) Install(ctx context.Context) {
	c.logger.Info("installing")

	var g errgroup.Group
	g.Go(func() error {
		return c.populateStatic(ctx)
	})
	g.Go(func() error {
		_, err := c.storage.Open(ctx, c.DataCacheName())
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	if c.state == StateNew {
		c.state = StateInstalled
	}
	// skipWaiting may have been requested while installing
	skip := c.opts.SkipWaiting || c.skipWaiting
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("installation failed", slog.Any("error", err))
		return
	}
	c.logger.Info("installation complete")
	if skip {
		c.SkipWaiting(ctx)
	}
}

// populateStatic fetches every static asset and stores them only when all
// of them answered 200.
func (c *Controller) populateStatic(ctx context.Context) error {
	gen, err := c.storage.Open(ctx, c.StaticCacheName())
	if err != nil {
		return err
	}
	entries := make([]*cachestore.Entry, 0, len(c.opts.StaticAssets))
	for _, asset := range c.opts.StaticAssets {
		e, err := c.fetchEntry(ctx, asset)
		if err != nil {
			return fmt.Errorf("cache %s: %w", asset, err)
		}
		entries = append(entries, e)
	}
	for _, e := range entries {
		if err := gen.Put(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// fetchEntry GETs ref from the network and requires a 200.
func (c *Controller) fetchEntry(ctx context.Context, ref string) (*cachestore.Entry, error) {
	u, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return cachestore.NewEntry(cacheKey(req.URL), resp, body), nil
}

// Activate deletes every generation that is not one of this version's two
// caches, then takes control of requests. Storage failures are logged and do
// not stop the activation.
func (c *Controller) Activate(ctx context.Context) {
	c.logger.Info("activating")

	names, err := c.storage.Keys(ctx)
	if err != nil {
		c.logger.Error("list caches failed", slog.Any("error", err))
	}
	for _, name := range names {
		if c.isOwnCache(name) {
			continue
		}
		c.logger.Info("deleting old cache", slog.String("cache", name))
		if _, err := c.storage.Delete(ctx, name); err != nil {
			c.logger.Error("delete cache failed", slog.String("cache", name), slog.Any("error", err))
		}
	}

	c.mu.Lock()
	c.state = StateActivated
	c.mu.Unlock()
	c.logger.Info("activation complete, claiming clients")
}

// SkipWaiting activates an installed version now. It is a no-op before
// install and after activation.
func (c *Controller) SkipWaiting(ctx context.Context) {
	c.mu.Lock()
	ready := c.state == StateInstalled
	c.skipWaiting = true
	c.mu.Unlock()
	if ready {
		c.Activate(ctx)
	}
}

// ClearAll deletes every cache generation, whatever its version.
func (c *Controller) ClearAll(ctx context.Context) error {
	names, err := c.storage.Keys(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := c.storage.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete cache %s: %w", name, err)
		}
	}
	c.logger.Info("all caches cleared", slog.Int("count", len(names)))
	return nil
}

// DataCacheSize returns the number of entries in the data generation.
func (c *Controller) DataCacheSize(ctx context.Context) (int, error) {
	gen, err := c.storage.Open(ctx, c.DataCacheName())
	if err != nil {
		return 0, err
	}
	keys, err := gen.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// BackgroundSync re-fetches the snapshot for the configured tag and replaces
// the cached copy on a 200. It reports whether the copy was replaced; other
// tags, rate limited calls and failures are ignored after logging.
func (c *Controller) BackgroundSync(ctx context.Context, tag string) bool {
	if tag != c.opts.SyncTag || c.opts.SyncPath == "" {
		return false
	}
	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.Debug("background sync skipped, ran recently", slog.String("tag", tag))
		return false
	}

	gen, err := c.storage.Open(ctx, c.DataCacheName())
	if err != nil {
		c.logger.Error("background sync failed", slog.Any("error", err))
		return false
	}
	e, err := c.fetchEntry(ctx, c.opts.SyncPath)
	if err != nil {
		c.logger.Error("background sync failed", slog.Any("error", err))
		return false
	}
	if err := gen.Put(ctx, e); err != nil {
		c.logger.Error("background sync failed", slog.Any("error", err))
		return false
	}
	c.logger.Info("background sync completed", slog.String("url", e.URL))
	return true
}
