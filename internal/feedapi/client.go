// Package feedapi implements the remote content API client.
//
// The API serves paginated feed items per owner, newest first. Responses
// are JSON; any non-2xx status is a fetch failure surfaced to the caller.
package feedapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Reel/1.0"
)

// Client implements domain.ContentRepository against the content API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new content API client
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// doRequest performs a GET request and returns the response body
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("content request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("content request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("content request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// FetchPage retrieves one page of an owner's feed, newest first
func (c *Client) FetchPage(ctx context.Context, ownerID int64, pageNumber, pageSize int) (domain.Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(pageNumber))
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("orderBy", "createdAt")
	query.Set("orderDirection", "desc")

	path := fmt.Sprintf("/owners/%d/content", ownerID)
	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return domain.Page{}, err
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return domain.Page{}, fmt.Errorf("failed to parse response: %w", err)
	}

	page := domain.Page{
		OwnerID: ownerID,
		Number:  pageNumber,
		Size:    pageSize,
		Items:   mapItems(resp.Items, ownerID),
	}

	c.logger.Debug("fetched page", "owner", ownerID, "page", pageNumber, "items", len(page.Items))
	return page, nil
}
