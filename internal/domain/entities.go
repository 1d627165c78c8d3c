package domain

import (
	"fmt"
	"time"
)

// MediaType distinguishes the payload attached to a content item
type MediaType int

const (
	MediaTypeNone MediaType = iota
	MediaTypeImage
	MediaTypeVideo
)

// String returns a human-readable representation of the media type
func (t MediaType) String() string {
	switch t {
	case MediaTypeImage:
		return "image"
	case MediaTypeVideo:
		return "video"
	case MediaTypeNone:
		return "none"
	default:
		return "unknown"
	}
}

// ContentItem represents a single entry in an owner's feed.
// Items are immutable once fetched; identity is ID and must be unique
// across every page merged into one owner's sequence.
type ContentItem struct {
	ID        int64     // Server-assigned unique identifier
	OwnerID   int64     // Feed owner the item belongs to
	Caption   string    // Display caption
	MediaURL  string    // Payload URL (empty when MediaType is none)
	ThumbURL  string    // Small preview image URL
	MediaType MediaType // image, video, or none
	CreatedAt time.Time // Server-side creation time

	// Media metadata (zero when unknown)
	Width    int           // Pixel width of the payload
	Height   int           // Pixel height of the payload
	Duration time.Duration // Video runtime, zero for images
	Size     int64         // Payload size in bytes
}

// HasMedia returns true if the item carries a loadable media payload
func (c ContentItem) HasMedia() bool {
	return c.MediaType != MediaTypeNone && c.MediaURL != ""
}

// FormattedDuration returns the duration in a human-readable format
func (c ContentItem) FormattedDuration() string {
	if c.Duration <= 0 {
		return ""
	}
	h := int(c.Duration.Hours())
	mins := int(c.Duration.Minutes()) % 60
	secs := int(c.Duration.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// Resolution returns a human-readable resolution string based on media height
func (c ContentItem) Resolution() string {
	switch {
	case c.Height >= 2160:
		return "4K"
	case c.Height >= 1080:
		return "1080p"
	case c.Height >= 720:
		return "720p"
	case c.Height > 0:
		return fmt.Sprintf("%dp", c.Height)
	default:
		return ""
	}
}

// Page is one contiguous, ordered batch of items returned for
// (ownerID, pageNumber, pageSize). Pages append to a single per-owner
// flat sequence in fetch order.
type Page struct {
	OwnerID int64         // Feed owner
	Number  int           // 1-based page number
	Size    int           // Requested page size
	Items   []ContentItem // Fetched items, server order
}

// Full returns true when the page filled its requested size, meaning
// more pages may exist beyond it.
func (p Page) Full() bool {
	return len(p.Items) >= p.Size
}

// FeedSnapshot is the read-only view handed to a rendering surface on
// each scroll frame or page load.
type FeedSnapshot struct {
	VisibleItems    []ContentItem // Items inside the current window, overscan included
	TotalKnownItems int           // Length of the flat sequence fetched so far
	IsLoading       bool          // An initial or load-more fetch is in flight
	HasMore         bool          // Further pages may exist server-side
}
