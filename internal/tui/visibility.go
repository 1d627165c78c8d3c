package tui

import (
	"sync"

	"github.com/mmcdole/reel/internal/media"
)

// Visibility implements media.VisibilityObserver for a terminal feed.
// There is no compositor to report intersections, so the view calls
// Apply with the node set currently inside the window and the observer
// fires enter/exit callbacks for the delta.
type Visibility struct {
	mu      sync.Mutex
	fns     map[string]media.VisibilityFunc
	visible map[string]bool
}

// NewVisibility creates an empty visibility tracker
func NewVisibility() *Visibility {
	return &Visibility{
		fns:     make(map[string]media.VisibilityFunc),
		visible: make(map[string]bool),
	}
}

// Observe registers a node's visibility callback
func (v *Visibility) Observe(node string, fn media.VisibilityFunc) {
	v.mu.Lock()
	v.fns[node] = fn
	wasVisible := v.visible[node]
	v.mu.Unlock()

	// A node registered while already inside the window enters at once
	if wasVisible {
		fn(true)
	}
}

// Unobserve drops a node's callback
func (v *Visibility) Unobserve(node string) {
	v.mu.Lock()
	delete(v.fns, node)
	delete(v.visible, node)
	v.mu.Unlock()
}

// Apply reconciles the tracked set against the nodes currently inside
// the window, firing exit callbacks before enter callbacks so media
// slots free up first.
func (v *Visibility) Apply(inWindow map[string]bool) {
	v.mu.Lock()
	var exits, enters []media.VisibilityFunc
	for node, wasVisible := range v.visible {
		if wasVisible && !inWindow[node] {
			v.visible[node] = false
			if fn := v.fns[node]; fn != nil {
				exits = append(exits, fn)
			}
		}
	}
	for node := range inWindow {
		if !v.visible[node] {
			v.visible[node] = true
			if fn := v.fns[node]; fn != nil {
				enters = append(enters, fn)
			}
		}
	}
	v.mu.Unlock()

	for _, fn := range exits {
		fn(false)
	}
	for _, fn := range enters {
		fn(true)
	}
}
