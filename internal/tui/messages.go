package tui

import "github.com/mmcdole/reel/internal/search"

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// FeedUpdatedMsg signals that the feed sequence or state changed and the
// view should repaint from a fresh snapshot.
type FeedUpdatedMsg struct{}

// MediaFailedMsg signals that an item's media load failed
type MediaFailedMsg struct {
	ItemID int64
	Err    error
}

// SearchResultsMsg carries the outcome of a caption search
type SearchResultsMsg struct {
	Results []search.Result
	Query   string
}

// ClearStatusMsg clears the status line
type ClearStatusMsg struct{}
