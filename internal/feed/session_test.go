package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/scroll"
	"github.com/mmcdole/reel/internal/window"
)

// fakeFetcher serves scripted pages and records every call. A non-nil
// gate makes FetchPage block until the test releases it.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int]domain.Page
	fails map[int]int // page -> remaining failures
	calls []int
	gate  chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[int]domain.Page),
		fails: make(map[int]int),
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, ownerID int64, pageNumber, pageSize int) (domain.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageNumber)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Page{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails[pageNumber] > 0 {
		f.fails[pageNumber]--
		return domain.Page{}, domain.ErrServerOffline
	}
	page, ok := f.pages[pageNumber]
	if !ok {
		return domain.Page{OwnerID: ownerID, Number: pageNumber, Size: pageSize}, nil
	}
	return page, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return 0
	}
	return f.calls[len(f.calls)-1]
}

// fakeMedia counts lifecycle calls
type fakeMedia struct {
	mu        sync.Mutex
	observed  map[string]int64
	sweeps    int
	destroyed bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{observed: make(map[string]int64)}
}

func (m *fakeMedia) Observe(node string, item domain.ContentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed[node] = item.ID
	return nil
}

func (m *fakeMedia) Unobserve(node string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.observed, node)
}

func (m *fakeMedia) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
}

func (m *fakeMedia) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed = true
}

// fakePrefetch records trigger positions
type fakePrefetch struct {
	mu       sync.Mutex
	triggers []int
}

func (p *fakePrefetch) Prefetch(ctx context.Context, ownerID int64, currentIndex, totalItems int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.triggers = append(p.triggers, currentIndex)
}

func (p *fakePrefetch) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.triggers)
}

func pageOf(owner int64, number, size int, firstID int64, count int) domain.Page {
	items := make([]domain.ContentItem, count)
	for i := range items {
		items[i] = domain.ContentItem{
			ID:        firstID + int64(i),
			OwnerID:   owner,
			MediaType: domain.MediaTypeImage,
			MediaURL:  "http://cdn/img.jpg",
		}
	}
	return domain.Page{OwnerID: owner, Number: number, Size: size, Items: items}
}

func newTestSession(fetcher PageFetcher, media MediaController, prefetch PrefetchTrigger) *Session {
	c := scroll.NewCoalescer(time.Millisecond, 20*time.Millisecond)
	calc := window.NewCalculator(1, 2)
	s := NewSession(Config{OwnerID: 7, PageSize: 50}, fetcher, media, prefetch, c, calc, nil)
	s.SetViewport(1)
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestInitialLoadReachesReady(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)

	s := newTestSession(fetcher, newFakeMedia(), nil)
	defer s.Close()

	if s.State() != StateIdle {
		t.Fatalf("expected idle before start, got %v", s.State())
	}

	s.Start()
	waitFor(t, "ready state", func() bool { return s.State() == StateReady })

	snap := s.Snapshot()
	if snap.TotalKnownItems != 50 {
		t.Errorf("expected 50 known items, got %d", snap.TotalKnownItems)
	}
	if !snap.HasMore {
		t.Error("a full page should leave HasMore true")
	}
}

func TestTailApproachTriggersLoadMore(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)
	fetcher.pages[2] = pageOf(7, 2, 50, 51, 50)

	s := newTestSession(fetcher, newFakeMedia(), nil)
	defer s.Close()

	s.Start()
	waitFor(t, "page 1 applied", func() bool { return s.State() == StateReady })

	// Index 47 of 50 is within the tail threshold: page 2 must load
	s.HandleScroll(47)
	waitFor(t, "page 2 applied", func() bool {
		return s.Snapshot().TotalKnownItems == 100
	})

	if got := fetcher.lastCall(); got != 2 {
		t.Errorf("expected page 2 fetched, got %d", got)
	}
}

func TestScrollFarFromTailDoesNotLoad(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)

	s := newTestSession(fetcher, newFakeMedia(), nil)
	defer s.Close()

	s.Start()
	waitFor(t, "page 1 applied", func() bool { return s.State() == StateReady })

	s.HandleScroll(10)
	time.Sleep(30 * time.Millisecond)

	if got := fetcher.callCount(); got != 1 {
		t.Errorf("mid-feed scroll should not fetch, got %d calls", got)
	}
}

func TestShortPageExhaustsFeed(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 30)

	s := newTestSession(fetcher, newFakeMedia(), nil)
	defer s.Close()

	s.Start()
	waitFor(t, "exhausted state", func() bool { return s.State() == StateExhausted })

	snap := s.Snapshot()
	if snap.HasMore {
		t.Error("a short page should clear HasMore")
	}
	if snap.TotalKnownItems != 30 {
		t.Errorf("expected 30 items, got %d", snap.TotalKnownItems)
	}

	// Further triggers are refused without fetching
	if err := s.LoadMore(); !errors.Is(err, domain.ErrFeedExhausted) {
		t.Errorf("expected ErrFeedExhausted, got %v", err)
	}
	s.HandleScroll(29)
	time.Sleep(30 * time.Millisecond)
	if got := fetcher.callCount(); got != 1 {
		t.Errorf("exhausted feed fetched again: %d calls", got)
	}
}

func TestOperationsAfterCloseReturnErrFeedClosed(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)

	s := newTestSession(fetcher, newFakeMedia(), nil)
	s.Start()
	waitFor(t, "page 1 applied", func() bool { return s.State() == StateReady })
	s.Close()

	if err := s.Start(); !errors.Is(err, domain.ErrFeedClosed) {
		t.Errorf("Start after close: expected ErrFeedClosed, got %v", err)
	}
	if err := s.LoadMore(); !errors.Is(err, domain.ErrFeedClosed) {
		t.Errorf("LoadMore after close: expected ErrFeedClosed, got %v", err)
	}
}

func TestDuplicateIDsAreDropped(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)
	// Page 2 re-sends items 41..50 before the new ones, as a server
	// would after items were inserted at the head mid-session.
	page2 := pageOf(7, 2, 50, 41, 50)
	fetcher.pages[2] = page2

	s := newTestSession(fetcher, newFakeMedia(), nil)
	defer s.Close()

	s.Start()
	waitFor(t, "page 1 applied", func() bool { return s.State() == StateReady })
	s.LoadMore()
	waitFor(t, "page 2 applied", func() bool {
		return s.Snapshot().TotalKnownItems > 50 && s.State() == StateReady
	})

	seq := s.Sequence()
	seen := make(map[int64]bool)
	for _, item := range seq {
		if seen[item.ID] {
			t.Fatalf("duplicate item %d in sequence", item.ID)
		}
		seen[item.ID] = true
	}
	if got := len(seq); got != 90 {
		t.Errorf("expected 90 unique items, got %d", got)
	}
}

func TestErrorStateIsRetryable(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)
	fetcher.fails[1] = 1

	s := newTestSession(fetcher, newFakeMedia(), nil)
	defer s.Close()

	s.Start()
	waitFor(t, "error state", func() bool { return s.State() == StateError })
	if !errors.Is(s.Err(), domain.ErrServerOffline) {
		t.Errorf("expected ErrServerOffline, got %v", s.Err())
	}

	// The next trigger retries the same page
	s.LoadMore()
	waitFor(t, "recovery", func() bool { return s.State() == StateReady })
	if got := s.Snapshot().TotalKnownItems; got != 50 {
		t.Errorf("expected 50 items after retry, got %d", got)
	}
}

func TestCloseDiscardsLateResult(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)
	fetcher.gate = make(chan struct{})

	media := newFakeMedia()
	s := newTestSession(fetcher, media, nil)

	s.Start()
	waitFor(t, "fetch in flight", func() bool { return fetcher.callCount() == 1 })

	go close(fetcher.gate)
	s.Close()

	if got := s.Snapshot().TotalKnownItems; got != 0 {
		t.Errorf("late result applied after close: %d items", got)
	}
	if !media.destroyed {
		t.Error("close must destroy the media manager")
	}
}

func TestScrollEndSweepsAndPrefetches(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)

	media := newFakeMedia()
	prefetch := &fakePrefetch{}
	s := newTestSession(fetcher, media, prefetch)
	defer s.Close()

	s.Start()
	waitFor(t, "page 1 applied", func() bool { return s.State() == StateReady })

	s.HandleScroll(10)
	waitFor(t, "scroll-end sweep", func() bool {
		media.mu.Lock()
		defer media.mu.Unlock()
		return media.sweeps > 0
	})
	if prefetch.count() == 0 {
		t.Error("expected a prefetch trigger after scrolling settled")
	}
}

func TestSnapshotWindowsTheSequence(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages[1] = pageOf(7, 1, 50, 1, 50)

	s := newTestSession(fetcher, newFakeMedia(), nil)
	defer s.Close()

	s.Start()
	waitFor(t, "page 1 applied", func() bool { return s.State() == StateReady })

	s.HandleScroll(20)
	waitFor(t, "window recentered", func() bool {
		snap := s.Snapshot()
		return len(snap.VisibleItems) > 0 && snap.VisibleItems[0].ID == 19
	})

	snap := s.Snapshot()
	// Offset 20, item height 1, viewport 1, overscan 2: indexes 18..22
	if got := len(snap.VisibleItems); got != 5 {
		t.Errorf("expected 5 visible items, got %d", got)
	}
}
