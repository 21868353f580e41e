// Package shopify implements the commerce platform port over the Shopify
// Admin REST API. The client is strictly read-only: it lists products and
// inventory levels and never writes back.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bundlecheck/backend/internal/domain/commerce"
)

// maxResponseSize is the maximum allowed response size from the Admin API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// defaultRetryDelay applies when a 429 carries no usable Retry-After header
const defaultRetryDelay = 2 * time.Second

// accessTokenHeader authenticates Admin API requests
const accessTokenHeader = "X-Shopify-Access-Token"

// Client implements the commerce.Platform port against the Shopify Admin API
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Shopify Admin API client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ListProducts returns one page of the product catalog. Pass "" for the first
// page; the next cursor comes from the Link response header and is "" when
// the catalog is exhausted.
func (c *Client) ListProducts(ctx context.Context, cursor string) (*commerce.ProductPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.config.PageSize))
	// With a page_info cursor the platform rejects any other filter.
	if cursor != "" {
		query.Set("page_info", cursor)
	}

	body, header, err := c.doRequest(ctx, "products.json", query)
	if err != nil {
		return nil, err
	}

	var resp productsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse products response: %v", commerce.ErrPlatformInvalidResponse, err)
	}

	page := &commerce.ProductPage{
		Products:   make([]commerce.Product, 0, len(resp.Products)),
		NextCursor: nextPageInfo(header.Get("Link")),
	}
	for _, p := range resp.Products {
		page.Products = append(page.Products, p.toDomain())
	}
	return page, nil
}

// ListInventoryLevels returns the per-location levels for one inventory item,
// following Link-header pagination to exhaustion.
func (c *Client) ListInventoryLevels(ctx context.Context, inventoryItemID int64) ([]commerce.InventoryLevel, error) {
	levels := make([]commerce.InventoryLevel, 0, 4)

	cursor := ""
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.config.PageSize))
		if cursor == "" {
			query.Set("inventory_item_ids", strconv.FormatInt(inventoryItemID, 10))
		} else {
			query.Set("page_info", cursor)
		}

		body, header, err := c.doRequest(ctx, "inventory_levels.json", query)
		if err != nil {
			return nil, err
		}

		var resp inventoryLevelsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: failed to parse inventory levels response: %v", commerce.ErrPlatformInvalidResponse, err)
		}
		for _, level := range resp.InventoryLevels {
			levels = append(levels, level.toDomain())
		}

		cursor = nextPageInfo(header.Get("Link"))
		if cursor == "" {
			return levels, nil
		}
	}
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs a GET against the Admin API. Rate-limited requests are
// retried up to MaxRetries times honoring Retry-After; other non-2xx statuses
// map to sentinel errors so callers can branch with errors.Is.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, http.Header, error) {
	requestURL := fmt.Sprintf("%s/%s?%s", c.config.APIBaseURL(), path, query.Encode())

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("shopify: failed to create request: %w", err)
		}
		req.Header.Set(accessTokenHeader, c.config.AccessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", commerce.ErrPlatformRequestFailed, err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			return nil, nil, fmt.Errorf("shopify: failed to read response: %w", readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, resp.Header, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, nil, fmt.Errorf("%w: HTTP %d", commerce.ErrPlatformAuthFailed, resp.StatusCode)
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= c.config.MaxRetries {
				return nil, nil, fmt.Errorf("%w: gave up after %d attempts", commerce.ErrPlatformRateLimited, attempt+1)
			}
			if err := sleepCtx(ctx, retryDelay(resp.Header)); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", commerce.ErrPlatformRateLimited, err)
			}
		default:
			return nil, nil, fmt.Errorf("%w: HTTP %d", commerce.ErrPlatformRequestFailed, resp.StatusCode)
		}
	}
}

// retryDelay reads the Retry-After header, which the platform sends as a
// decimal number of seconds (e.g. "2.0").
func retryDelay(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return defaultRetryDelay
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return defaultRetryDelay
	}
	return time.Duration(seconds * float64(time.Second))
}

// sleepCtx sleeps for d unless the context is cancelled first
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Client implements the commerce platform port
var _ commerce.Platform = (*Client)(nil)
