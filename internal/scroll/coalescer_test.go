package scroll

import (
	"sync"
	"testing"
	"time"
)

// frameRecorder collects delivered offsets
type frameRecorder struct {
	mu      sync.Mutex
	offsets []int
}

func (r *frameRecorder) record(offset int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offsets = append(r.offsets, offset)
}

func (r *frameRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.offsets))
	copy(out, r.offsets)
	return out
}

func TestRapidSignalsCoalesceIntoFewFrames(t *testing.T) {
	c := NewCoalescer(20*time.Millisecond, 50*time.Millisecond)
	defer c.Close()

	rec := &frameRecorder{}
	c.Subscribe(rec.record)

	// 100 signals in well under one throttle interval
	for i := 0; i < 100; i++ {
		c.OnScroll(i * 10)
	}

	time.Sleep(60 * time.Millisecond)

	frames := rec.snapshot()
	if len(frames) == 0 {
		t.Fatal("no frame delivered")
	}
	if len(frames) > 2 {
		t.Errorf("expected at most 2 frames for a burst, got %d", len(frames))
	}
	if last := frames[len(frames)-1]; last != 990 {
		t.Errorf("frame should carry the latest offset, got %d", last)
	}
}

func TestFramesKeepPaceWithSustainedScrolling(t *testing.T) {
	c := NewCoalescer(10*time.Millisecond, 50*time.Millisecond)
	defer c.Close()

	rec := &frameRecorder{}
	c.Subscribe(rec.record)

	for i := 0; i < 10; i++ {
		c.OnScroll(i)
		time.Sleep(15 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	frames := rec.snapshot()
	// Signals slower than the throttle each earn a frame
	if len(frames) < 5 {
		t.Errorf("expected sustained scrolling to deliver frames, got %d", len(frames))
	}
}

func TestScrollingFlagClearsAfterQuietPeriod(t *testing.T) {
	c := NewCoalescer(5*time.Millisecond, 40*time.Millisecond)
	defer c.Close()

	c.OnScroll(100)
	if !c.IsScrolling() {
		t.Error("expected scrolling flag set immediately after a signal")
	}

	time.Sleep(80 * time.Millisecond)
	if c.IsScrolling() {
		t.Error("expected scrolling flag cleared after quiet period")
	}
}

func TestScrollEndFiresOnce(t *testing.T) {
	c := NewCoalescer(5*time.Millisecond, 30*time.Millisecond)
	defer c.Close()

	var mu sync.Mutex
	fired := 0
	c.OnScrollEnd(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		c.OnScroll(i)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("expected exactly one scroll-end, got %d", fired)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c := NewCoalescer(5*time.Millisecond, 30*time.Millisecond)
	defer c.Close()

	rec := &frameRecorder{}
	id := c.Subscribe(rec.record)
	c.Unsubscribe(id)

	c.OnScroll(42)
	time.Sleep(30 * time.Millisecond)

	if frames := rec.snapshot(); len(frames) != 0 {
		t.Errorf("unsubscribed callback still received %d frames", len(frames))
	}
}

func TestCloseCancelsPendingWork(t *testing.T) {
	c := NewCoalescer(20*time.Millisecond, 30*time.Millisecond)

	rec := &frameRecorder{}
	c.Subscribe(rec.record)

	endFired := make(chan struct{}, 1)
	c.OnScrollEnd(func() { endFired <- struct{}{} })

	c.OnScroll(1)
	c.Close()

	time.Sleep(80 * time.Millisecond)

	if frames := rec.snapshot(); len(frames) != 0 {
		t.Errorf("closed coalescer delivered %d frames", len(frames))
	}
	select {
	case <-endFired:
		t.Error("closed coalescer fired scroll-end")
	default:
	}
	if c.IsScrolling() {
		t.Error("closed coalescer reports scrolling")
	}

	// Signals after Close are ignored
	c.OnScroll(2)
	time.Sleep(40 * time.Millisecond)
	if frames := rec.snapshot(); len(frames) != 0 {
		t.Error("signal after Close was delivered")
	}
}
