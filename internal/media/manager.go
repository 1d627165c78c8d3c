// Package media bounds the number of live decode resources held for a
// feed. Items load when their node becomes visible, unload when it
// leaves, and a periodic sweep reclaims anything idle past a threshold.
package media

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// DefaultSweepInterval is how often the idle sweep runs
const DefaultSweepInterval = 30 * time.Second

// ErrorFunc reports a failed media load for fallback UI
type ErrorFunc func(itemID int64, err error)

// Options configures a Manager
type Options struct {
	MaxConcurrent int           // Bound on handles in loading|loaded state
	IdleTimeout   time.Duration // Idle threshold before forced unload
	SweepInterval time.Duration // Zero selects DefaultSweepInterval
	OnError       ErrorFunc     // Optional per-item load failure callback
}

// Manager owns every media handle for one feed session
type Manager struct {
	factory  ElementFactory
	observer VisibilityObserver
	logger   *slog.Logger
	opts     Options

	mu      sync.Mutex
	items   map[string]domain.ContentItem // node -> registered item
	handles map[string]*Handle            // node -> live handle
	pending []string                      // FIFO queue of nodes waiting for a slot
	active  int                           // handles currently loading|loaded
	closed  bool

	cancel context.CancelFunc // stops the sweep goroutine
	wg     sync.WaitGroup
}

// NewManager creates a media lifecycle manager and starts its idle sweep
func NewManager(factory ElementFactory, observer VisibilityObserver, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		factory:  factory,
		observer: observer,
		logger:   logger,
		opts:     opts,
		items:    make(map[string]domain.ContentItem),
		handles:  make(map[string]*Handle),
		cancel:   cancel,
	}

	m.wg.Add(1)
	go m.sweepLoop(ctx)

	return m
}

// Observe registers an item node for visibility-driven media loading.
// Items without a loadable payload are refused with domain.ErrNoMedia; a
// destroyed manager refuses with domain.ErrFeedClosed.
func (m *Manager) Observe(node string, item domain.ContentItem) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrFeedClosed
	}
	if !item.HasMedia() {
		m.mu.Unlock()
		return domain.ErrNoMedia
	}
	m.items[node] = item
	m.mu.Unlock()

	m.observer.Observe(node, func(visible bool) {
		if visible {
			m.enter(node)
		} else {
			m.exit(node)
		}
	})
	return nil
}

// Unobserve unregisters a node and releases its resources
func (m *Manager) Unobserve(node string) {
	m.observer.Unobserve(node)
	m.exit(node)

	m.mu.Lock()
	delete(m.items, node)
	m.mu.Unlock()
}

// Touch marks a node's media as accessed, deferring the idle sweep
func (m *Manager) Touch(node string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.handles[node]; ok {
		h.lastAccessedAt = time.Now()
	}
}

// State returns the handle state for a node, if one exists
func (m *Manager) State(node string) (HandleState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[node]
	if !ok {
		return StateUnloaded, false
	}
	return h.state, true
}

// ElementFor returns the live element for a node so the rendering surface
// can draw a loaded payload. Returns nil unless the handle is loaded.
func (m *Manager) ElementFor(node string) Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[node]
	if !ok || h.state != StateLoaded {
		return nil
	}
	h.lastAccessedAt = time.Now()
	return h.element
}

// ActiveCount returns the number of handles in loading|loaded state
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// HandleCount returns the number of live handles
func (m *Manager) HandleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// Destroy stops the sweep, releases every handle, and drops all
// registrations. The manager is unusable afterwards.
func (m *Manager) Destroy() {
	m.cancel()

	m.mu.Lock()
	m.closed = true
	for node := range m.items {
		m.observer.Unobserve(node)
	}
	for node, h := range m.handles {
		m.releaseLocked(node, h)
	}
	m.items = make(map[string]domain.ContentItem)
	m.pending = nil
	m.mu.Unlock()

	m.wg.Wait()
}

// enter handles a node becoming visible
func (m *Manager) enter(node string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	if h, ok := m.handles[node]; ok {
		h.lastAccessedAt = time.Now()
		return
	}

	item, ok := m.items[node]
	if !ok {
		return
	}

	h := &Handle{
		ItemID:         item.ID,
		URL:            item.MediaURL,
		Type:           item.MediaType,
		state:          StateUnloaded,
		lastAccessedAt: time.Now(),
	}
	m.handles[node] = h

	if m.active < m.opts.MaxConcurrent {
		m.startLoadLocked(node, h, item)
	} else {
		// Over the bound: queue FIFO until a slot frees up
		m.pending = append(m.pending, node)
	}
}

// exit handles a node leaving visibility
func (m *Manager) exit(node string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.handles[node]
	if !ok {
		return
	}
	m.releaseLocked(node, h)
	m.promoteLocked()
}

// startLoadLocked transitions a handle to loading and begins the fetch.
// Caller must hold m.mu.
func (m *Manager) startLoadLocked(node string, h *Handle, item domain.ContentItem) {
	ctx, cancel := context.WithCancel(context.Background())
	h.state = StateLoading
	h.cancel = cancel
	element := m.factory.NewElement(item)
	h.element = element
	m.active++

	m.logger.Debug("media load start", "item", item.ID, "type", item.MediaType.String())

	// The goroutine loads through its own reference: an exit may release
	// the handle and nil h.element before the goroutine ever runs.
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := element.Load(ctx)
		m.finishLoad(node, h, err)
	}()
}

// finishLoad applies the outcome of an element load
func (m *Manager) finishLoad(node string, h *Handle, err error) {
	var report ErrorFunc
	var itemID int64

	m.mu.Lock()
	// The handle may have been released while the load was in flight;
	// in that case the element is already freed and the slot returned.
	if current, ok := m.handles[node]; !ok || current != h {
		m.mu.Unlock()
		return
	}

	if err != nil {
		h.state = StateError
		h.cancel = nil
		h.element.Release()
		h.element = nil
		m.active--
		m.logger.Warn("media load failed", "item", h.ItemID, "error", err)
		if m.opts.OnError != nil {
			report = m.opts.OnError
			itemID = h.ItemID
		}
		m.promoteLocked()
	} else {
		h.state = StateLoaded
		h.lastAccessedAt = time.Now()
		m.logger.Debug("media load done", "item", h.ItemID)
	}
	m.mu.Unlock()

	if report != nil {
		report(itemID, err)
	}
}

// releaseLocked frees a handle's resources and removes it from the
// active set. Caller must hold m.mu.
func (m *Manager) releaseLocked(node string, h *Handle) {
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if h.element != nil {
		h.element.Release()
		h.element = nil
	}
	if h.state == StateLoading || h.state == StateLoaded {
		m.active--
	}
	h.state = StateUnloaded
	delete(m.handles, node)
	m.removePendingLocked(node)
}

// promoteLocked starts queued loads while slots are free.
// Caller must hold m.mu.
func (m *Manager) promoteLocked() {
	for m.active < m.opts.MaxConcurrent && len(m.pending) > 0 {
		node := m.pending[0]
		m.pending = m.pending[1:]

		h, ok := m.handles[node]
		if !ok || h.state != StateUnloaded {
			continue
		}
		item, ok := m.items[node]
		if !ok {
			continue
		}
		m.startLoadLocked(node, h, item)
	}
}

// removePendingLocked drops a node from the wait queue.
// Caller must hold m.mu.
func (m *Manager) removePendingLocked(node string) {
	for i, n := range m.pending {
		if n == node {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// sweepLoop periodically unloads handles idle past the threshold, even
// ones the observer still considers visible. This guards against missed
// exit callbacks.
func (m *Manager) sweepLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep force-unloads every handle idle past the idle timeout. Exposed
// so a scroll-ended event can trigger it early.
func (m *Manager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.opts.IdleTimeout <= 0 {
		return
	}

	now := time.Now()
	for node, h := range m.handles {
		if h.state == StateUnloaded {
			continue
		}
		if now.Sub(h.lastAccessedAt) >= m.opts.IdleTimeout {
			m.logger.Debug("idle sweep unload", "item", h.ItemID)
			m.releaseLocked(node, h)
		}
	}
	m.promoteLocked()
}
