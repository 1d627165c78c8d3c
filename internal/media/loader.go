package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mmcdole/reel/internal/domain"
)

const (
	loaderTimeout = 20 * time.Second

	// videoProbeBytes is how much of a video file the metadata preload
	// reads. Enough for the moov/header atoms of typical files without
	// buffering the stream itself.
	videoProbeBytes = 256 * 1024

	// thumbWidth is the decode target width for image payloads
	thumbWidth = 480
)

// HTTPLoader creates decode elements that fetch payloads over HTTP.
// Images are fully preloaded and decoded to a thumbnail; videos preload
// metadata only via a ranged request.
type HTTPLoader struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPLoader creates an element factory backed by one shared client
func NewHTTPLoader(logger *slog.Logger) *HTTPLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPLoader{
		client: &http.Client{Timeout: loaderTimeout},
		logger: logger,
	}
}

// NewElement returns the media-type-specific element for an item
func (l *HTTPLoader) NewElement(item domain.ContentItem) Element {
	switch item.MediaType {
	case domain.MediaTypeVideo:
		return &VideoElement{client: l.client, url: item.MediaURL}
	default:
		url := item.MediaURL
		if item.ThumbURL != "" {
			url = item.ThumbURL
		}
		return &ImageElement{client: l.client, url: url}
	}
}

// ImageElement fetches and decodes an image payload
type ImageElement struct {
	client *http.Client
	url    string

	mu  sync.Mutex
	img image.Image
}

// Load fetches the image and decodes it down to a thumbnail
func (e *ImageElement) Load(ctx context.Context) error {
	body, err := fetch(ctx, e.client, e.url, "")
	if err != nil {
		return err
	}

	src, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("decode image %s: %w", e.url, err)
	}

	// Downscale so an idle handle holds a bounded number of pixels
	thumb := src
	if src.Bounds().Dx() > thumbWidth {
		thumb = imaging.Resize(src, thumbWidth, 0, imaging.Lanczos)
	}

	e.mu.Lock()
	e.img = thumb
	e.mu.Unlock()
	return nil
}

// Image returns the decoded thumbnail, or nil if unloaded
func (e *ImageElement) Image() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.img
}

// Release frees the decoded pixels
func (e *ImageElement) Release() {
	e.mu.Lock()
	e.img = nil
	e.mu.Unlock()
}

// VideoElement preloads only a video's leading bytes, enough for header
// metadata without buffering the stream
type VideoElement struct {
	client *http.Client
	url    string

	mu    sync.Mutex
	probe []byte
}

// Load performs a ranged fetch of the file header
func (e *VideoElement) Load(ctx context.Context) error {
	rangeHeader := fmt.Sprintf("bytes=0-%d", videoProbeBytes-1)
	body, err := fetch(ctx, e.client, e.url, rangeHeader)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.probe = body
	e.mu.Unlock()
	return nil
}

// Probe returns the preloaded header bytes, or nil if unloaded
func (e *VideoElement) Probe() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.probe
}

// Release drops the preloaded bytes
func (e *VideoElement) Release() {
	e.mu.Lock()
	e.probe = nil
	e.mu.Unlock()
}

// fetch performs a GET, optionally ranged, and returns the body
func fetch(ctx context.Context, client *http.Client, url, rangeHeader string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	// 206 is the expected answer to a ranged request; some servers
	// ignore Range and answer 200 with the full body
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("fetch %s: unexpected status code: %d", url, resp.StatusCode)
	}

	limit := io.Reader(resp.Body)
	if rangeHeader != "" {
		limit = io.LimitReader(resp.Body, videoProbeBytes)
	}

	body, err := io.ReadAll(limit)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
