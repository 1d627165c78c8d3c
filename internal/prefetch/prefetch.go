// Package prefetch warms the page cache with pages just beyond the
// current scroll position. Prefetching is best-effort: failures are
// logged and never reach the user-visible path.
package prefetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultFetchInterval spaces queued fetches so prefetching never bursts
// against the remote API
const DefaultFetchInterval = 250 * time.Millisecond

// PageCache is the slice of the page cache the prefetcher needs
type PageCache interface {
	FetchPage(ctx context.Context, ownerID int64, pageNumber, pageSize int) (domain.Page, error)
	Contains(ownerID int64, pageNumber, pageSize int) bool
}

// target is one queued page fetch
type target struct {
	owner int64
	page  int
}

// Prefetcher drains its queue sequentially, one fetch at a time, paced
// by a rate limiter.
type Prefetcher struct {
	cache     PageCache
	pageSize  int
	lookahead int
	limiter   *rate.Limiter
	logger    *slog.Logger

	mu      sync.Mutex
	queue   []target
	queued  map[target]bool
	running bool
	wg      sync.WaitGroup
}

// New creates a prefetcher. A non-positive interval falls back to
// DefaultFetchInterval.
func New(cache PageCache, pageSize, lookahead int, interval time.Duration, logger *slog.Logger) *Prefetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultFetchInterval
	}
	return &Prefetcher{
		cache:     cache,
		pageSize:  pageSize,
		lookahead: lookahead,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		logger:    logger,
		queued:    make(map[target]bool),
	}
}

// Prefetch enqueues the pages covering and following currentIndex,
// clamped to the last page implied by totalItems. Pages already cached
// or already queued are skipped. Triggering while a drain is running
// merges into the existing pass.
func (p *Prefetcher) Prefetch(ctx context.Context, ownerID int64, currentIndex, totalItems int) {
	if p.pageSize <= 0 || p.lookahead <= 0 || currentIndex < 0 {
		return
	}

	currentPage := currentIndex/p.pageSize + 1
	lastPage := 0
	if totalItems > 0 {
		lastPage = (totalItems + p.pageSize - 1) / p.pageSize
	}

	p.mu.Lock()
	for page := currentPage; page < currentPage+p.lookahead; page++ {
		if lastPage > 0 && page > lastPage {
			break
		}
		t := target{owner: ownerID, page: page}
		if p.queued[t] || p.cache.Contains(ownerID, page, p.pageSize) {
			continue
		}
		p.queued[t] = true
		p.queue = append(p.queue, t)
	}

	start := !p.running && len(p.queue) > 0
	if start {
		p.running = true
		p.wg.Add(1)
	}
	p.mu.Unlock()

	if start {
		go p.drain(ctx)
	}
}

// Wait blocks until the current drain pass (if any) finishes. Intended
// for teardown and tests.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}

// drain processes the queue sequentially until it is empty
func (p *Prefetcher) drain(ctx context.Context) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.running = false
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue = p.queue[1:]
		delete(p.queued, t)
		p.mu.Unlock()

		if err := p.limiter.Wait(ctx); err != nil {
			// Context cancelled: abandon the pass, clear the queue
			p.abort()
			return
		}

		if _, err := p.cache.FetchPage(ctx, t.owner, t.page, p.pageSize); err != nil {
			// Swallowed: prefetch failures never block later entries
			p.logger.Warn("prefetch failed", "owner", t.owner, "page", t.page, "error", err)
		} else {
			p.logger.Debug("prefetched page", "owner", t.owner, "page", t.page)
		}
	}
}

// abort clears the queue after a cancelled pass
func (p *Prefetcher) abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = nil
	p.queued = make(map[target]bool)
	p.running = false
}
