package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/speakle/speakle/internal/httpc"
)

// Client implements Controller over HTTP.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a detector client. Empty fields fall back to DefaultConfig.
func NewClient(config Config) *Client {
	def := DefaultConfig()
	if config.URL == "" {
		config.URL = def.URL
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	config.URL = strings.TrimRight(config.URL, "/")

	return &Client{
		config: config,
		http:   httpc.NewClient(config.Timeout),
	}
}

// Notify posts {"action": action} to /api/notify.
func (c *Client) Notify(ctx context.Context, action Action) error {
	body, err := json.Marshal(map[string]string{"action": string(action)})
	if err != nil {
		return fmt.Errorf("marshal notify: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL+"/api/notify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify %s: %w", action, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify %s: unexpected status %d", action, resp.StatusCode)
	}
	return nil
}

// URL returns the configured base URL.
func (c *Client) URL() string {
	return c.config.URL
}
