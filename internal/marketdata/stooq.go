// Package marketdata acquires and parses daily OHLCV price series.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"riskledger/pkg/utils"
)

const defaultBaseURL = "https://stooq.com"

// StooqClient downloads daily OHLCV CSV files from Stooq and caches them
// on disk so repeated runs do not refetch.
type StooqClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStooqClient creates a client with the given request timeout.
func NewStooqClient(timeout time.Duration) *StooqClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &StooqClient{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the daily-interval CSV endpoint for symbol.
func (c *StooqClient) URL(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	return fmt.Sprintf("%s/q/d/l/?s=%s&i=d", c.baseURL, s)
}

// CachePath returns where the cached CSV for symbol lives under cacheDir.
func CachePath(cacheDir, symbol string) string {
	name := strings.ReplaceAll(strings.ToLower(symbol), "/", "_")
	return filepath.Join(cacheDir, name+"_stooq_d.csv")
}

// Download fetches the daily CSV for symbol into cacheDir and returns the
// file path. An existing cache file is reused unless force is set.
func (c *StooqClient) Download(ctx context.Context, symbol, cacheDir string, force bool) (string, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	out := CachePath(cacheDir, symbol)
	if !force {
		if _, err := os.Stat(out); err == nil {
			return out, nil
		}
	}

	body, err := utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() ([]byte, error) {
		return c.fetch(ctx, symbol)
	})
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(out, body, 0644); err != nil {
		return "", fmt.Errorf("writing cache file: %w", err)
	}
	return out, nil
}

func (c *StooqClient) fetch(ctx context.Context, symbol string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(symbol), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", symbol, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
