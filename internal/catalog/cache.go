package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gopkg.in/tomb.v2"

	"github.com/fairyhunter13/apparel-storefront/internal/metrics"
	"github.com/fairyhunter13/apparel-storefront/internal/model"
)

// State describes how a read was served.
type State string

const (
	StateCold  State = "cold"
	StateFresh State = "fresh"
	StateStale State = "stale"
)

type snapshot struct {
	products  []model.Product
	byID      map[int64]int
	fetchedAt time.Time
}

func newSnapshot(products []model.Product, fetchedAt time.Time) *snapshot {
	byID := make(map[int64]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	return &snapshot{products: products, byID: byID, fetchedAt: fetchedAt}
}

// Cache is the in-memory product catalog. The snapshot is replaced as a whole, so a
// reader sees either the old or the new catalog, never a mix.
type Cache struct {
	vendor  Vendor
	opts    Options
	current atomic.Pointer[snapshot]
	group   singleflight.Group
	now     func() time.Time

	mu        sync.Mutex
	inflight  *RefreshTask
	started   bool
	lifecycle tomb.Tomb
}

// New creates an empty Cache. Call Start to enable the periodic refresher.
func New(vendor Vendor, opts Options) *Cache {
	return &Cache{vendor: vendor, opts: opts, now: time.Now}
}

// Products returns the catalog. The returned slice is shared and must not be modified.
// Only a cold cache blocks on the vendor; errors are returned only in that case.
func (c *Cache) Products(ctx context.Context) ([]model.Product, State, error) {
	snap, state, err := c.read(ctx)
	if err != nil {
		return nil, state, err
	}
	return snap.products, state, nil
}

// Product returns one product of the catalog.
func (c *Cache) Product(ctx context.Context, id int64) (*model.Product, State, error) {
	snap, state, err := c.read(ctx)
	if err != nil {
		return nil, state, err
	}
	i, ok := snap.byID[id]
	if !ok {
		return nil, state, ErrProductNotFound
	}
	p := snap.products[i]
	return &p, state, nil
}

func (c *Cache) read(ctx context.Context) (*snapshot, State, error) {
	if snap := c.current.Load(); snap != nil {
		if c.now().Sub(snap.fetchedAt) < c.opts.FreshFor {
			metrics.CatalogServed.WithLabelValues(string(StateFresh)).Inc()
			return snap, StateFresh, nil
		}
		c.RefreshAsync()
		metrics.CatalogServed.WithLabelValues(string(StateStale)).Inc()
		return snap, StateStale, nil
	}

	v, err, _ := c.group.Do("catalog", func() (any, error) {
		if snap := c.current.Load(); snap != nil {
			return snap, nil
		}
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, StateCold, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	metrics.CatalogServed.WithLabelValues(string(StateCold)).Inc()
	return v.(*snapshot), StateCold, nil
}

func (c *Cache) fetch(ctx context.Context) (*snapshot, error) {
	start := time.Now()
	products, err := fetchAll(ctx, c.vendor, c.opts)
	if err != nil {
		metrics.RecordCatalogFetch("failure", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordCatalogFetch("success", time.Since(start).Seconds())

	snap := newSnapshot(products, c.now())
	c.current.Store(snap)
	log.Info().
		Int("products", len(products)).
		Dur("took", time.Since(start)).
		Msg("catalog fetched")
	return snap, nil
}

// RefreshAsync starts a background full fetch unless one is already running, and
// returns the handle of the running fetch. On failure the current snapshot is kept.
func (c *Cache) RefreshAsync() *RefreshTask {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != nil && c.inflight.Running() {
		return c.inflight
	}

	ctx := c.lifecycle.Context(context.Background())
	task := newRefreshTask(c.now(), func() error {
		if _, err := c.fetch(ctx); err != nil {
			log.Error().Err(err).Msg("background catalog refresh failed, keeping previous snapshot")
			return err
		}
		return nil
	})
	c.inflight = task
	return task
}

// Start launches the periodic refresher. It is a no-op when already started.
func (c *Cache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.lifecycle.Go(c.refreshLoop)
}

// Stop cancels any running refresh and waits for the refresher to exit.
func (c *Cache) Stop() error {
	c.mu.Lock()
	started, task := c.started, c.inflight
	c.mu.Unlock()

	c.lifecycle.Kill(nil)
	if task != nil {
		_ = task.Wait()
	}
	if !started {
		return nil
	}
	return c.lifecycle.Wait()
}

func (c *Cache) refreshLoop() error {
	ticker := time.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.lifecycle.Dying():
			return nil
		case <-ticker.C:
			task := c.RefreshAsync()
			select {
			case <-task.Done():
			case <-c.lifecycle.Dying():
				return nil
			}
		}
	}
}
