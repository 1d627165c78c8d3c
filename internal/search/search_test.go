package search

import (
	"testing"

	"github.com/mmcdole/reel/internal/domain"
)

func captions(texts ...string) []domain.ContentItem {
	items := make([]domain.ContentItem, len(texts))
	for i, text := range texts {
		items[i] = domain.ContentItem{ID: int64(i + 1), Caption: text}
	}
	return items
}

func TestFilterMatchesSubsequence(t *testing.T) {
	svc := NewService(nil)
	items := captions("Sunset over the bay", "Morning coffee", "Sunday hike")

	results := svc.Filter("sunset", items)
	if len(results) == 0 {
		t.Fatal("expected a match for sunset")
	}
	if results[0].Item.ID != 1 {
		t.Errorf("expected item 1 first, got %d", results[0].Item.ID)
	}
	if len(results[0].MatchedIndexes) == 0 {
		t.Error("subsequence matches should carry highlight positions")
	}
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	svc := NewService(nil)
	items := captions("GOLDEN HOUR at the pier")

	if got := svc.Filter("golden", items); len(got) != 1 {
		t.Errorf("expected 1 match, got %d", len(got))
	}
}

func TestFilterRanksBetterMatchesFirst(t *testing.T) {
	svc := NewService(nil)
	items := captions("misc clips and outtakes", "coffee", "coffee tasting notes")

	results := svc.Filter("coffee", items)
	if len(results) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(results))
	}
	if results[0].Item.Caption != "coffee" {
		t.Errorf("expected the exact caption first, got %q", results[0].Item.Caption)
	}
}

func TestFilterToleratesTypos(t *testing.T) {
	svc := NewService(nil)
	items := captions("beautiful architecture downtown")

	// One substitution within a 7+ character query
	results := svc.Filter("arxhitecture", items)
	if len(results) != 1 {
		t.Fatalf("expected typo-tolerant match, got %d results", len(results))
	}
}

func TestFilterEmptyQueryAndNoMatch(t *testing.T) {
	svc := NewService(nil)
	items := captions("something")

	if got := svc.Filter("", items); got != nil {
		t.Error("empty query should return nil")
	}
	if got := svc.Filter("zzzzqqqq", items); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
	if got := svc.Filter("query", nil); got != nil {
		t.Error("empty sequence should return nil")
	}
}
