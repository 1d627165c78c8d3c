// Package search provides fuzzy caption search over a feed's known item
// sequence.
package search

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sfuzzy "github.com/sahilm/fuzzy"

	"github.com/mmcdole/reel/internal/domain"
)

// Result is one matched item with highlight metadata
type Result struct {
	Item           domain.ContentItem
	MatchedIndexes []int // Caption character positions that matched
	Score          int   // Lower is better
}

// captionIndex implements sfuzzy.Source over pre-lowered captions
type captionIndex struct {
	items []domain.ContentItem
	lower []string
}

func (idx captionIndex) String(i int) string { return idx.lower[i] }
func (idx captionIndex) Len() int            { return len(idx.items) }

// Service searches captions in the flat item sequence
type Service struct {
	logger *slog.Logger
}

// NewService creates a search service
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Filter returns the items whose caption matches the query, best match
// first. Subsequence matches carry per-character highlight positions; if
// none exist, a typo-tolerant pass ranks by edit distance instead.
func (s *Service) Filter(query string, items []domain.ContentItem) []Result {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 {
		return nil
	}

	idx := captionIndex{
		items: items,
		lower: make([]string, len(items)),
	}
	for i, item := range items {
		idx.lower[i] = strings.ToLower(item.Caption)
	}

	if results := s.subsequencePass(query, idx); len(results) > 0 {
		s.logger.Debug("caption search", "query", query, "results", len(results))
		return results
	}

	results := s.distancePass(query, idx)
	s.logger.Debug("caption search fallback", "query", query, "results", len(results))
	return results
}

// subsequencePass matches the query as an in-order character subsequence
func (s *Service) subsequencePass(query string, idx captionIndex) []Result {
	matches := sfuzzy.FindFrom(strings.ToLower(query), idx)

	results := make([]Result, len(matches))
	for i, match := range matches {
		results[i] = Result{
			Item:           idx.items[match.Index],
			MatchedIndexes: match.MatchedIndexes,
			// sfuzzy scores higher-is-better; flip to the package convention
			Score: -match.Score,
		}
	}
	return results
}

// distancePass tolerates typos the subsequence matcher rejects: a
// caption matches when one of its words sits within the allowed edit
// distance of the query.
func (s *Service) distancePass(query string, idx captionIndex) []Result {
	query = strings.ToLower(query)
	maxTypos := allowedTypos(len([]rune(query)))
	if maxTypos == 0 {
		return nil
	}

	var results []Result
	for i, caption := range idx.lower {
		best := -1
		for _, word := range strings.Fields(caption) {
			dist := fuzzy.LevenshteinDistance(query, word)
			if dist <= maxTypos && (best < 0 || dist < best) {
				best = dist
			}
		}
		if best >= 0 {
			results = append(results, Result{
				Item:  idx.items[i],
				Score: best,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results
}

// allowedTypos scales edit-distance tolerance with query length
func allowedTypos(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}
