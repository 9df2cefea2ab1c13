package avatar

import (
	"context"
	"errors"
	"sync"
	
	"github.com/peoplegraph/peoplegraph/internal/graph"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// placeholderKey is the singleflight key of the shared placeholder image.
const placeholderKey = "\x00placeholder"

// Result is the outcome of an avatar lookup. Image is nil when neither the
// avatar nor the placeholder could be loaded; callers then draw a plain dot.
type Result struct {
	Image       *Image
	Placeholder bool
}

// Cache maps nodes to avatar images, keyed by node id and secondary image
// key so a reload that changes a node's sid fetches the new image. Each image
// is fetched at most once per process: a failed fetch is remembered as "no
// image" and never retried. Cache is safe for concurrent use.
type Cache struct {
	fetcher        *Fetcher
	avatarURL      func(sid string) string
	placeholderURL string
	logger         *zap.Logger

	group singleflight.Group

	mu          sync.RWMutex
	images      map[string]*Image // by imageKey; nil value: fetch failed
	placeholder *Image
	placeDone   bool
}

// NewCache creates an empty cache. avatarURL maps a node's secondary image
// key to its URL.
func NewCache(fetcher *Fetcher, avatarURL func(sid string) string, placeholderURL string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		fetcher:        fetcher,
		avatarURL:      avatarURL,
		placeholderURL: placeholderURL,
		logger:         logger,
		images:         make(map[string]*Image),
	}
}

// Lookup returns the avatar for a node, fetching it on first use. Nodes
// without a secondary image key, or whose fetch failed, get the placeholder.
func (c *Cache) Lookup(ctx context.Context, id, sid string) Result {
	if sid == "" {
		return c.placeholderResult(ctx)
	}

	key := imageKey(id, sid)
	c.mu.RLock()
	img, done := c.images[key]
	c.mu.RUnlock()

	if !done {
		var ok bool
		img, ok = c.share(ctx, key, func(fctx context.Context) *Image {
			return c.load(fctx, key, id, c.avatarURL(sid))
		})
		if !ok {
			return Result{Placeholder: true}
		}
	}

	if img != nil {
		return Result{Image: img}
	}
	return c.placeholderResult(ctx)
}

func imageKey(id, sid string) string {
	return id + "\x00" + sid
}

// share runs fn once per key across concurrent callers. The fetch runs under
// a context detached from the first caller, bounded by the fetcher timeout,
// so one cancelled request does not fail the others waiting on it. ok is
// false when ctx ended before the fetch settled.
func (c *Cache) share(ctx context.Context, key string, fn func(context.Context) *Image) (*Image, bool) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetcher.timeout())
		defer cancel()
		return fn(fctx), nil
	})
	select {
	case res := <-ch:
		img, _ := res.Val.(*Image)
		return img, true
	case <-ctx.Done():
		return nil, false
	}
}

// load fetches url and records the outcome under key. A fetch that timed out
// or met an open circuit is not recorded, since the host never answered; a
// later request can try again.
func (c *Cache) load(ctx context.Context, key, id, url string) *Image {
	c.mu.RLock()
	img, done := c.images[key]
	c.mu.RUnlock()
	if done {
		return img
	}

	img, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		if notAttempted(ctx, err) {
			return nil
		}
		c.logger.Debug("avatar fetch failed", zap.String("node", id), zap.String("url", url), zap.Error(err))
		img = nil
	}

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()
	return img
}

// Placeholder returns the shared placeholder image, or nil if it could not be
// loaded.
func (c *Cache) Placeholder(ctx context.Context) *Image {
	return c.placeholderResult(ctx).Image
}

func (c *Cache) placeholderResult(ctx context.Context) Result {
	c.mu.RLock()
	img, done := c.placeholder, c.placeDone
	c.mu.RUnlock()

	if !done {
		img, _ = c.share(ctx, placeholderKey, c.loadPlaceholder)
	}

	return Result{Image: img, Placeholder: true}
}

func (c *Cache) loadPlaceholder(ctx context.Context) *Image {
	c.mu.RLock()
	img, done := c.placeholder, c.placeDone
	c.mu.RUnlock()
	if done {
		return img
	}

	img, err := c.fetcher.Fetch(ctx, c.placeholderURL)
	if err != nil {
		if notAttempted(ctx, err) {
			return nil
		}
		c.logger.Warn("placeholder fetch failed", zap.String("url", c.placeholderURL), zap.Error(err))
		img = nil
	}

	c.mu.Lock()
	c.placeholder = img
	c.placeDone = true
	c.mu.Unlock()
	return img
}

func notAttempted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, ErrCircuitOpen)
}

// Report summarises a prefetch run.
type Report struct {
	Loaded      int      `json:"loaded"`
	Placeholder int      `json:"placeholder"`
	Missing     []string `json:"missing,omitempty"` // Nodes with no image at all
}

// Prefetch loads avatars for every person node with at most concurrency
// fetches in flight. It returns once every fetch has settled.
func (c *Cache) Prefetch(ctx context.Context, nodes []*graph.Node, concurrency int) Report {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, n := range nodes {
		if n.Kind != graph.KindPerson {
			continue
		}
		i, n := i, n
		g.Go(func() error {
			results[i] = c.Lookup(gctx, n.ID, n.SID)
			return nil
		})
	}
	_ = g.Wait()

	var report Report
	for i, n := range nodes {
		if n.Kind != graph.KindPerson {
			continue
		}
		r := results[i]
		switch {
		case r.Image == nil:
			report.Missing = append(report.Missing, n.ID)
		case r.Placeholder:
			report.Placeholder++
		default:
			report.Loaded++
		}
	}
	return report
}

// Warm starts a background prefetch and returns immediately. Late results
// simply land in the cache.
func (c *Cache) Warm(ctx context.Context, nodes []*graph.Node, concurrency int) {
	go func() {
		report := c.Prefetch(ctx, nodes, concurrency)
		c.logger.Info("avatar prefetch finished",
			zap.Int("loaded", report.Loaded),
			zap.Int("placeholder", report.Placeholder),
			zap.Int("missing", len(report.Missing)))
	}()
}
