// Package market talks to the regional marketplace read API
// (arsha.io-compatible world market endpoints).
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bdo-market-watch/internal/model"
)

// ErrItemNotFound is returned when the market API cannot resolve the
// (item, sid) pair in the configured region.
var ErrItemNotFound = errors.New("item not found on the marketplace")

// Config holds market client settings.
type Config struct {
	// BaseURL of the market API, e.g. "https://api.arsha.io".
	BaseURL string
	// Region selects the regional endpoint (na, eu, sea, ...).
	Region string
	// Language for item names, e.g. "en".
	Language string
	// Timeout bounds a single fetch. Zero means 10s.
	Timeout time.Duration
}

// Client fetches current price/stock data for marketplace items.
type Client struct {
	httpClient *http.Client
	baseURL    string
	region     string
	language   string
}

// New creates a market client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:  cfg.BaseURL,
		region:   cfg.Region,
		language: cfg.Language,
	}
}

// Region returns the configured region selector.
func (c *Client) Region() string {
	return c.region
}

// itemResponse mirrors the market API item payload. Fields we do not consume
// (enhance bounds, trade totals) are left out.
type itemResponse struct {
	Name         string `json:"name"`
	ID           int    `json:"id"`
	SID          int    `json:"sid"`
	BasePrice    int64  `json:"basePrice"`
	CurrentStock int64  `json:"currentStock"`
	LastSoldTime int64  `json:"lastSoldTime"`
}

// FetchItem returns the current snapshot for one (itemID, sid) pair.
// Returns ErrItemNotFound when the API does not know the pair; any other
// failure (network, HTTP status, parse) is reported as a plain error.
func (c *Client) FetchItem(ctx context.Context, itemID, sid int) (*model.RemoteSnapshot, error) {
	endpoint := fmt.Sprintf("%s/v2/%s/item", c.baseURL, c.region)

	q := url.Values{}
	q.Set("id", strconv.Itoa(itemID))
	q.Set("sid", strconv.Itoa(sid))
	if c.language != "" {
		q.Set("lang", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build market request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrItemNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read market response: %w", err)
	}

	var item itemResponse
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to parse market response: %w", err)
	}
	if item.Name == "" {
		return nil, ErrItemNotFound
	}

	return &model.RemoteSnapshot{
		Name:         item.Name,
		Price:        item.BasePrice,
		Stock:        item.CurrentStock,
		LastSoldTime: item.LastSoldTime,
	}, nil
}
