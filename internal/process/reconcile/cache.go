package reconcile

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"juristrack/internal/platform/metrics"
)

// ViewBuilder is the rebuild seam; satisfied by *Builder and by test fakes.
type ViewBuilder interface {
	Build(ctx context.Context) (*View, error)
}

// Cache memoizes the reconciled view. One mutex guards the whole
// check-staleness → rebuild → publish sequence so at most one rebuild runs
// and no reader observes a half-updated state. The published *View is
// immutable; callers may hold and read it after releasing the cache.
//
// A rebuild is triggered when the invalidation flag is set, when no view has
// been built yet, or when any watched source file was modified at or after
// the last build. The explicit flag exists because filesystem mtime
// granularity can be coarser than the update cadence; ingestion sets it
// after every successful write instead of trusting timestamps.
type Cache struct {
	builder ViewBuilder
	sources []string // files whose mtimes gate staleness (store db, spreadsheet)
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu          sync.Mutex
	view        *View
	lastBuild   time.Time
	invalidated bool
}

// NewCache builds an empty (stale) cache watching the given source files.
func NewCache(builder ViewBuilder, logger *slog.Logger, m *metrics.Metrics, sources ...string) *Cache {
	return &Cache{builder: builder, sources: sources, logger: logger, metrics: m}
}

// View returns the cached view, rebuilding first when stale. On rebuild
// failure the previous view (if any) is left untouched and the error is
// returned to this caller; the next access retries.
func (c *Cache) View(ctx context.Context) (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.needsRebuildLocked() {
		c.metrics.RecordCacheHit()
		return c.view, nil
	}
	if err := c.rebuildLocked(ctx); err != nil {
		return nil, err
	}
	return c.view, nil
}

// ForceRebuild unconditionally rebuilds and returns the fresh view.
func (c *Cache) ForceRebuild(ctx context.Context) (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.rebuildLocked(ctx); err != nil {
		return nil, err
	}
	return c.view, nil
}

// Invalidate marks the cache stale. Idempotent and safe to call
// concurrently with readers; it never touches the cached view itself, the
// next access performs the rebuild.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.invalidated = true
	c.mu.Unlock()
}

func (c *Cache) needsRebuildLocked() bool {
	if c.invalidated || c.view == nil {
		return true
	}
	return c.sourcesChangedLocked()
}

// sourcesChangedLocked reports whether any watched file was modified at or
// after the last build. A file that cannot be stat'ed counts as changed; the
// rebuild will surface the real error.
func (c *Cache) sourcesChangedLocked() bool {
	for _, path := range c.sources {
		fi, err := os.Stat(path)
		if err != nil {
			return true
		}
		if !fi.ModTime().Before(c.lastBuild) {
			return true
		}
	}
	return false
}

func (c *Cache) rebuildLocked(ctx context.Context) error {
	start := time.Now()
	view, err := c.builder.Build(ctx)
	if err != nil {
		c.metrics.RecordBuildFailure()
		c.logger.ErrorContext(ctx, "view rebuild failed", "error", err)
		return err
	}
	c.view = view
	c.lastBuild = time.Now()
	c.invalidated = false
	c.metrics.RecordRebuild(time.Since(start).Seconds())
	c.logger.InfoContext(ctx, "view rebuilt",
		"rows", len(view.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
