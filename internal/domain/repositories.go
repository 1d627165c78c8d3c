package domain

import "context"

// ContentRepository fetches pages of feed items from a remote source.
// Implementations must return ErrServerOffline for transport failures so
// callers can distinguish connectivity from server-side errors.
type ContentRepository interface {
	// FetchPage retrieves one page of an owner's feed, newest first.
	// A returned page with fewer than pageSize items means no further
	// pages exist.
	FetchPage(ctx context.Context, ownerID int64, pageNumber, pageSize int) (Page, error)
}
