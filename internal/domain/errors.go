package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the content server is unreachable
	ErrServerOffline = errors.New("content server is unreachable")

	// ErrFeedClosed indicates the feed session has been torn down
	ErrFeedClosed = errors.New("feed session is closed")

	// ErrFeedExhausted indicates no further pages exist for the owner
	ErrFeedExhausted = errors.New("feed has no more pages")

	// ErrNoMedia indicates the item carries no loadable media payload
	ErrNoMedia = errors.New("item has no media payload")
)
