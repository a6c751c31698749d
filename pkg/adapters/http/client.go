package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/warden/pkg/domain"
)

// Client talks to a running controller's HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL (e.g. "http://127.0.0.1:7463").
// A nil httpClient uses a client with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Status fetches GET /status.
func (c *Client) Status(ctx context.Context) (domain.Status, error) {
	var status domain.Status
	err := c.get(ctx, "/status", &status)
	return status, err
}

// History fetches up to limit recorded transitions, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]domain.TransitionEvent, error) {
	var history []domain.TransitionEvent
	err := c.get(ctx, "/history?limit="+strconv.Itoa(limit), &history)
	return history, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Send posts one control line and returns the reply.
func (c *Client) Send(ctx context.Context, line string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/commands", bytes.NewBufferString(line))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post command: %w", err)
	}
	defer resp.Body.Close()

	var body CommandResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reply (%s): %w", resp.Status, err)
	}
	if body.Error != "" {
		return "", errors.New(body.Error)
	}
	return body.Reply, nil
}

// Execute implements the command executor contract over HTTP.
func (c *Client) Execute(ctx context.Context, cmd domain.Command) (string, error) {
	line := cmd.Raw
	if line == "" {
		line = string(cmd.Verb)
	}
	return c.Send(ctx, line)
}
