// Package window maps a scroll offset and viewport geometry to the range
// of feed items that should be materialized, overscan included.
package window

import "github.com/mmcdole/reel/internal/domain"

// Range is a half-open index range [Start, End) over the flat item
// sequence. End may exceed the known sequence length; Slice clamps.
type Range struct {
	Start int
	End   int
}

// Count returns the number of indexes covered by the range
func (r Range) Count() int {
	return r.End - r.Start
}

// Contains reports whether the index falls inside the range
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End
}

// Calculator computes visible ranges. It is pure: identical inputs always
// produce identical output, so recomputation per scroll frame is cheap and
// memoizable.
type Calculator struct {
	itemHeight int // Height of one rendered item, same unit as offsets
	overscan   int // Extra items retained on each side of the viewport
}

// NewCalculator creates a calculator for fixed-height items
func NewCalculator(itemHeight, overscan int) Calculator {
	if itemHeight < 1 {
		itemHeight = 1
	}
	if overscan < 0 {
		overscan = 0
	}
	return Calculator{itemHeight: itemHeight, overscan: overscan}
}

// VisibleRange returns the item range covering the viewport at the given
// scroll offset, extended by overscan on both sides.
func (c Calculator) VisibleRange(scrollOffset, viewportHeight int) Range {
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if viewportHeight < 0 {
		viewportHeight = 0
	}

	start := scrollOffset/c.itemHeight - c.overscan
	if start < 0 {
		start = 0
	}

	visibleCount := (viewportHeight + c.itemHeight - 1) / c.itemHeight
	end := start + visibleCount + 2*c.overscan

	return Range{Start: start, End: end}
}

// Slice returns the items covered by the range, clamped to the sequence.
// The returned slice aliases items; callers treat it as read-only.
func Slice(items []domain.ContentItem, r Range) []domain.ContentItem {
	if r.Start >= len(items) || r.End <= 0 || r.Start >= r.End {
		return nil
	}
	start := r.Start
	if start < 0 {
		start = 0
	}
	end := r.End
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// TotalHeight returns the scrollable height implied by the item count
func (c Calculator) TotalHeight(itemCount int) int {
	if itemCount < 0 {
		return 0
	}
	return itemCount * c.itemHeight
}

// ItemHeight returns the configured per-item height
func (c Calculator) ItemHeight() int {
	return c.itemHeight
}
