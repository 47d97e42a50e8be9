package connection

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

// AdminClient talks to the server's admin HTTP endpoint.
type AdminClient struct {
	baseURL string
	client  *http.Client
}

// NewAdminClient creates an admin client. A missing scheme defaults to
// http://.
func NewAdminClient(server string, timeout time.Duration) *AdminClient {
	baseURL := server
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &AdminClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the base URL of the client.
func (c *AdminClient) BaseURL() string {
	return c.baseURL
}

// Version fetches the server build information.
func (c *AdminClient) Version(ctx context.Context) (buildinfo.Info, error) {
	var info buildinfo.Info
	resp, err := c.get(ctx, "/version")
	if err != nil {
		return info, err
	}
	return info, ParseResponse(resp, &info)
}

// Ready reports whether the server answers /readyz with 200.
func (c *AdminClient) Ready(ctx context.Context) (bool, error) {
	resp, err := c.get(ctx, "/readyz")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK, nil
}

func (c *AdminClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "respkv-bench/"+buildinfo.Version)
	return c.client.Do(req)
}

// ParseResponse decodes a JSON response body into target and closes it.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
