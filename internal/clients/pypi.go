// Package clients contains the HTTP clients pipshow talks to.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pipshow-dev/pipshow/internal/cache"
	"github.com/pipshow-dev/pipshow/internal/pep508"
)

const defaultPyPIURL = "https://pypi.org"

// PyPIClient queries the PyPI JSON API.
type PyPIClient struct {
	// BaseURL may be overridden in tests.
	BaseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewPyPIClient creates a PyPI client. The cache may be nil.
func NewPyPIClient(c *cache.Cache, timeout time.Duration) *PyPIClient {
	return &PyPIClient{
		BaseURL:    defaultPyPIURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
	}
}

// projectResponse is the subset of the PyPI project document we use.
type projectResponse struct {
	Info struct {
		Name         string   `json:"name"`
		Version      string   `json:"version"`
		RequiresDist []string `json:"requires_dist"`
	} `json:"info"`
}

// LatestVersion returns the newest released version of the named package.
func (c *PyPIClient) LatestVersion(ctx context.Context, name string) (string, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", c.BaseURL, pep508.NormalizeName(name))

	var data []byte
	if c.cache != nil {
		if cached, ok := c.cache.Get(url); ok {
			data = cached
		}
	}

	if data == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("querying PyPI for %s: %w", name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("package %s not found on PyPI", name)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("querying PyPI for %s: unexpected status code %d", name, resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("reading PyPI response for %s: %w", name, err)
		}
		if c.cache != nil {
			c.cache.Set(url, data)
		}
	}

	var proj projectResponse
	if err := json.Unmarshal(data, &proj); err != nil {
		return "", fmt.Errorf("parsing PyPI response for %s: %w", name, err)
	}
	if proj.Info.Version == "" {
		return "", fmt.Errorf("PyPI response for %s has no version", name)
	}
	return proj.Info.Version, nil
}
