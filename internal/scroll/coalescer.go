// Package scroll collapses a high-frequency scroll signal into at most one
// recomputation per render frame, plus a scroll-ended notification after a
// quiet period.
package scroll

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long the signal must stay silent before the
// coalescer considers scrolling ended.
const DefaultQuietPeriod = 150 * time.Millisecond

// FrameFunc receives the most recent scroll offset once per frame
type FrameFunc func(offset int)

// Coalescer throttles scroll signals. At most one recomputation is
// pending at any time; a newer signal replaces the offset the pending
// recomputation will deliver rather than scheduling another.
type Coalescer struct {
	throttle time.Duration
	quiet    time.Duration

	mu        sync.Mutex
	nextID    int
	frameSubs map[int]FrameFunc
	endSubs   map[int]func()

	latestOffset int
	lastFrameAt  time.Time
	frameTimer   *time.Timer
	quietTimer   *time.Timer
	scrolling    bool
	closed       bool
}

// NewCoalescer creates a coalescer with the given frame throttle. A zero
// or negative quiet period falls back to DefaultQuietPeriod.
func NewCoalescer(throttle, quiet time.Duration) *Coalescer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Coalescer{
		throttle:  throttle,
		quiet:     quiet,
		frameSubs: make(map[int]FrameFunc),
		endSubs:   make(map[int]func()),
	}
}

// OnScroll feeds a raw scroll signal. Signals arriving faster than the
// throttle interval collapse into the next scheduled frame, which always
// delivers the latest offset received before it runs.
func (c *Coalescer) OnScroll(offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.latestOffset = offset
	c.scrolling = true

	// Restart the quiet timer on every signal
	if c.quietTimer != nil {
		c.quietTimer.Stop()
	}
	c.quietTimer = time.AfterFunc(c.quiet, c.fireScrollEnd)

	// One pending frame at a time; it will pick up latestOffset
	if c.frameTimer != nil {
		return
	}

	delay := c.throttle - time.Since(c.lastFrameAt)
	if delay < 0 {
		delay = 0
	}
	c.frameTimer = time.AfterFunc(delay, c.fireFrame)
}

// fireFrame delivers the latest offset to frame subscribers
func (c *Coalescer) fireFrame() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.frameTimer = nil
	c.lastFrameAt = time.Now()
	offset := c.latestOffset
	subs := make([]FrameFunc, 0, len(c.frameSubs))
	for _, fn := range c.frameSubs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(offset)
	}
}

// fireScrollEnd clears the scrolling flag and notifies end subscribers
func (c *Coalescer) fireScrollEnd() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.scrolling = false
	c.quietTimer = nil
	subs := make([]func(), 0, len(c.endSubs))
	for _, fn := range c.endSubs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Subscribe registers a per-frame callback and returns its id
func (c *Coalescer) Subscribe(fn FrameFunc) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.frameSubs[c.nextID] = fn
	return c.nextID
}

// Unsubscribe removes a per-frame callback
func (c *Coalescer) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.frameSubs, id)
}

// OnScrollEnd registers a callback fired after the quiet period and
// returns its id
func (c *Coalescer) OnScrollEnd(fn func()) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.endSubs[c.nextID] = fn
	return c.nextID
}

// RemoveScrollEnd removes a scroll-ended callback
func (c *Coalescer) RemoveScrollEnd(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.endSubs, id)
}

// IsScrolling reports whether a signal arrived within the quiet period
func (c *Coalescer) IsScrolling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrolling
}

// Close cancels pending timers and drops all subscribers. Further
// signals are ignored.
func (c *Coalescer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.frameTimer != nil {
		c.frameTimer.Stop()
		c.frameTimer = nil
	}
	if c.quietTimer != nil {
		c.quietTimer.Stop()
		c.quietTimer = nil
	}
	c.frameSubs = make(map[int]FrameFunc)
	c.endSubs = make(map[int]func())
	c.scrolling = false
}
