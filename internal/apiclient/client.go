// Package apiclient is a small HTTP client for the alert API, used by the CLI.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/alertapi/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type SendResult struct {
	Message   string                 `json:"message"`
	Processed int                    `json:"processed"`
	Inserted  int                    `json:"inserted"`
	Alerts    []domain.InsertedAlert `json:"alerts"`
}

type RecentResult struct {
	Alerts []domain.AlertRecord `json:"alerts"`
	Count  int                  `json:"count"`
}

type Health struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Body)
}

// Send posts alerts as one webhook batch.
func (c *Client) Send(ctx context.Context, alerts []domain.AlertInput) (*SendResult, error) {
	body, err := json.Marshal(map[string]any{"alerts": alerts})
	if err != nil {
		return nil, fmt.Errorf("encode alerts: %w", err)
	}
	return c.SendRaw(ctx, body)
}

// SendRaw posts a ready-made webhook body unchanged.
func (c *Client) SendRaw(ctx context.Context, body []byte) (*SendResult, error) {
	var out SendResult
	if err := c.do(ctx, http.MethodPost, "/alerts", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Recent(ctx context.Context, limit int) (*RecentResult, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/alerts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out RecentResult
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
