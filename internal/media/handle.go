package media

import (
	"context"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// HandleState tracks the lifecycle of one item's decode resource
type HandleState int

const (
	StateUnloaded HandleState = iota
	StateLoading
	StateLoaded
	StateError
)

// String returns a human-readable representation of the handle state
func (s HandleState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Handle pairs a visible item with its live decode resource. Handles are
// owned exclusively by the Manager; no other component touches the
// underlying element.
type Handle struct {
	ItemID int64
	URL    string
	Type   domain.MediaType

	state          HandleState
	lastAccessedAt time.Time
	element        Element
	cancel         context.CancelFunc // cancels an in-flight load
}

// State returns the handle's current lifecycle state
func (h *Handle) State() HandleState {
	return h.state
}

// Element is a media decode primitive the engine instructs to start and
// stop loading a URL. Implementations free their buffers on Release.
type Element interface {
	// Load fetches and decodes the payload. It must respect ctx
	// cancellation and return promptly when cancelled.
	Load(ctx context.Context) error

	// Release detaches the source and frees decode buffers. Safe to
	// call more than once and while a Load is still in flight.
	Release()
}

// ElementFactory creates decode elements per item
type ElementFactory interface {
	NewElement(item domain.ContentItem) Element
}

// VisibilityFunc reports a node entering (true) or leaving (false) the
// viewport
type VisibilityFunc func(visible bool)

// VisibilityObserver is the platform visibility capability. The real
// rendering surface supplies one; tests use a fake that fires enter and
// exit synthetically.
type VisibilityObserver interface {
	Observe(node string, fn VisibilityFunc)
	Unobserve(node string)
}
