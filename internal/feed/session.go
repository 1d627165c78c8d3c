// Package feed orchestrates one owner's scrolling session: it owns the
// flat item sequence, drives page loads from scroll position, and fans
// scroll frames out to the window calculator and media manager.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/scroll"
	"github.com/mmcdole/reel/internal/window"
)

// State is the session lifecycle state
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateLoadingMore
	StateExhausted
	StateError
)

// String returns a human-readable representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadingMore:
		return "loading_more"
	case StateExhausted:
		return "exhausted"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// DefaultTailThreshold is how close, in items, the visible range must get
// to the sequence end before the next page loads.
const DefaultTailThreshold = 3

// PageFetcher is the slice of the page cache the session needs
type PageFetcher interface {
	FetchPage(ctx context.Context, ownerID int64, pageNumber, pageSize int) (domain.Page, error)
}

// MediaController is the slice of the media lifecycle manager the
// session needs.
type MediaController interface {
	Observe(node string, item domain.ContentItem) error
	Unobserve(node string)
	Sweep()
	Destroy()
}

// PrefetchTrigger warms pages ahead of the current position
type PrefetchTrigger interface {
	Prefetch(ctx context.Context, ownerID int64, currentIndex, totalItems int)
}

// Config carries the per-session knobs
type Config struct {
	OwnerID       int64
	PageSize      int
	TailThreshold int // Zero selects DefaultTailThreshold
}

// Session is the feed orchestrator for one owner. All collaborators are
// constructor-injected; nothing is package-level.
type Session struct {
	cfg       Config
	fetcher   PageFetcher
	media     MediaController
	prefetch  PrefetchTrigger // optional
	coalescer *scroll.Coalescer
	calc      window.Calculator
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	state          State
	items          []domain.ContentItem
	seen           map[int64]bool
	nextPage       int
	hasMore        bool
	lastErr        error
	scrollOffset   int
	viewportHeight int
	closed         bool
	generation     int // bumped on close so late fetch results are discarded

	frameSub int
	endSub   int
	onChange func() // optional repaint hook, called outside the lock

	wg sync.WaitGroup
}

// NewSession wires a session to its collaborators. The coalescer and
// media manager become owned by the session: Close stops both.
func NewSession(cfg Config, fetcher PageFetcher, media MediaController, prefetch PrefetchTrigger, coalescer *scroll.Coalescer, calc window.Calculator, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TailThreshold <= 0 {
		cfg.TailThreshold = DefaultTailThreshold
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:       cfg,
		fetcher:   fetcher,
		media:     media,
		prefetch:  prefetch,
		coalescer: coalescer,
		calc:      calc,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateIdle,
		seen:      make(map[int64]bool),
		nextPage:  1,
		hasMore:   true,
	}

	s.frameSub = coalescer.Subscribe(s.handleFrame)
	s.endSub = coalescer.OnScrollEnd(s.handleScrollEnd)

	return s
}

// OnChange registers a hook invoked whenever the sequence or state
// changes, so a rendering surface can repaint.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetViewport updates the viewport height used for window computation
func (s *Session) SetViewport(height int) {
	s.mu.Lock()
	s.viewportHeight = height
	s.mu.Unlock()
}

// Start triggers the initial page load. Safe to call once; later calls
// while not Idle or Error are no-ops.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrFeedClosed
	}
	if s.state != StateIdle && s.state != StateError {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	s.lastErr = nil
	page := s.nextPage
	gen := s.generation
	s.mu.Unlock()

	s.fetchAsync(page, gen)
	return nil
}

// LoadMore appends the next page. Exhausted sessions never fetch again;
// an Error session retries its failed page.
func (s *Session) LoadMore() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrFeedClosed
	}
	if !s.hasMore {
		s.mu.Unlock()
		return domain.ErrFeedExhausted
	}
	switch s.state {
	case StateReady:
		s.state = StateLoadingMore
	case StateError:
		// Error is retryable: the next trigger re-attempts the same page
		if len(s.items) == 0 {
			s.state = StateLoading
		} else {
			s.state = StateLoadingMore
		}
		s.lastErr = nil
	default:
		// A fetch is already in flight
		s.mu.Unlock()
		return nil
	}
	page := s.nextPage
	gen := s.generation
	s.mu.Unlock()

	s.fetchAsync(page, gen)
	return nil
}

// HandleScroll feeds a raw scroll signal into the coalescer. The
// session reacts once per frame, not per signal.
func (s *Session) HandleScroll(offset int) {
	s.coalescer.OnScroll(offset)
}

// Observe registers an item node with the media manager
func (s *Session) Observe(node string, item domain.ContentItem) error {
	return s.media.Observe(node, item)
}

// Unobserve drops an item node from the media manager
func (s *Session) Unobserve(node string) {
	s.media.Unobserve(node)
}

// Snapshot returns the read-only view for the current scroll position
func (s *Session) Snapshot() domain.FeedSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.calc.VisibleRange(s.scrollOffset, s.viewportHeight)
	return domain.FeedSnapshot{
		VisibleItems:    window.Slice(s.items, r),
		TotalKnownItems: len(s.items),
		IsLoading:       s.state == StateLoading || s.state == StateLoadingMore,
		HasMore:         s.hasMore,
	}
}

// VisibleRange returns the current window over the flat sequence
func (s *Session) VisibleRange() window.Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calc.VisibleRange(s.scrollOffset, s.viewportHeight)
}

// Sequence returns a copy of the full known item sequence, for search
// and similar read-only consumers.
func (s *Session) Sequence() []domain.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ContentItem, len(s.items))
	copy(out, s.items)
	return out
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the session into the Error state
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close tears the session down: the coalescer stops, the media manager
// releases every handle, and any in-flight fetch result is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.generation++
	s.mu.Unlock()

	s.cancel()
	s.coalescer.Unsubscribe(s.frameSub)
	s.coalescer.RemoveScrollEnd(s.endSub)
	s.coalescer.Close()
	s.media.Destroy()
	s.wg.Wait()
}

// fetchAsync fetches one page in the background and applies the result
// unless the session closed in the meantime.
func (s *Session) fetchAsync(page, gen int) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result, err := s.fetcher.FetchPage(s.ctx, s.cfg.OwnerID, page, s.cfg.PageSize)
		s.applyResult(page, gen, result, err)
	}()
}

// applyResult folds a fetch outcome into the session state
func (s *Session) applyResult(page, gen int, result domain.Page, err error) {
	s.mu.Lock()

	// A result arriving after Close (or for a stale generation) is
	// dropped on the floor.
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}

	if err != nil {
		s.state = StateError
		s.lastErr = fmt.Errorf("load page %d: %w", page, err)
		s.logger.Warn("page load failed", "owner", s.cfg.OwnerID, "page", page, "error", err)
		notify := s.onChange
		s.mu.Unlock()
		if notify != nil {
			notify()
		}
		return
	}

	added := 0
	for _, item := range result.Items {
		if s.seen[item.ID] {
			continue
		}
		s.seen[item.ID] = true
		s.items = append(s.items, item)
		added++
	}
	s.nextPage = page + 1

	// A short page means the feed end was reached
	if !result.Full() {
		s.hasMore = false
		s.state = StateExhausted
	} else {
		s.state = StateReady
	}

	s.logger.Debug("page applied",
		"owner", s.cfg.OwnerID,
		"page", page,
		"added", added,
		"total", len(s.items),
		"state", s.state.String())

	total := len(s.items)
	index := s.currentIndexLocked()
	more := s.hasMore
	notify := s.onChange
	s.mu.Unlock()

	if s.prefetch != nil && more {
		s.prefetch.Prefetch(s.ctx, s.cfg.OwnerID, index, total)
	}
	if notify != nil {
		notify()
	}
}

// handleFrame is the per-frame coalescer callback: recompute the window,
// check the tail, and notify the rendering surface.
func (s *Session) handleFrame(offset int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.scrollOffset = offset
	r := s.calc.VisibleRange(offset, s.viewportHeight)
	nearTail := s.hasMore && s.state == StateReady &&
		r.End >= len(s.items)-s.cfg.TailThreshold
	notify := s.onChange
	s.mu.Unlock()

	if nearTail {
		s.LoadMore()
	}
	if notify != nil {
		notify()
	}
}

// handleScrollEnd runs deferred work once scrolling settles: an early
// idle sweep and a prefetch pass from the resting position.
func (s *Session) handleScrollEnd() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	index := s.currentIndexLocked()
	total := len(s.items)
	more := s.hasMore
	s.mu.Unlock()

	s.media.Sweep()
	if s.prefetch != nil && more {
		s.prefetch.Prefetch(s.ctx, s.cfg.OwnerID, index, total)
	}
}

// currentIndexLocked derives the item index at the top of the viewport.
// Caller must hold s.mu.
func (s *Session) currentIndexLocked() int {
	height := s.calc.ItemHeight()
	if height < 1 {
		return 0
	}
	return s.scrollOffset / height
}
