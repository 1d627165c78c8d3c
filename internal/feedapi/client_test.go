package feedapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

func TestFetchPageParsesItems(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"items": [
				{"id": 101, "ownerId": 7, "caption": "sunrise", "mediaUrl": "http://cdn/101.jpg", "mediaType": "image", "createdAt": "2026-08-01T10:00:00Z", "width": 1920, "height": 1080},
				{"id": 102, "ownerId": 7, "caption": "clip", "mediaUrl": "http://cdn/102.mp4", "mediaType": "video", "durationMs": 12500},
				{"id": 103, "ownerId": 7, "caption": "text only"}
			],
			"total": 3, "page": 1, "limit": 50
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	page, err := client.FetchPage(context.Background(), 7, 1, 50)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}
	if page.Number != 1 || page.Size != 50 || page.OwnerID != 7 {
		t.Errorf("page metadata wrong: %+v", page)
	}

	first := page.Items[0]
	if first.ID != 101 || first.MediaType != domain.MediaTypeImage {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.CreatedAt.IsZero() {
		t.Error("createdAt not parsed")
	}
	if first.Resolution() != "1080p" {
		t.Errorf("expected 1080p, got %q", first.Resolution())
	}

	second := page.Items[1]
	if second.MediaType != domain.MediaTypeVideo {
		t.Errorf("expected video type, got %v", second.MediaType)
	}
	if second.Duration != 12500*time.Millisecond {
		t.Errorf("duration not mapped: %v", second.Duration)
	}

	third := page.Items[2]
	if third.HasMedia() {
		t.Errorf("item without mediaUrl should have no media: %+v", third)
	}

	for _, want := range []string{"page=1", "limit=50", "orderBy=createdAt", "orderDirection=desc"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestFetchPageNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	_, err := client.FetchPage(context.Background(), 7, 1, 50)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFetchPageTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed server refuses connections

	client := NewClient(srv.URL, 0, nil)
	_, err := client.FetchPage(context.Background(), 7, 1, 50)
	if !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("expected ErrServerOffline, got %v", err)
	}
}

func TestFetchPageRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.FetchPage(ctx, 7, 1, 50)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
