// Package apiclient is a thin HTTP client for the compass API. The CLI
// uses it as a sync backend when a server is configured.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a compass API server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the bearer token for subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token, empty before sign-in.
func (c *Client) Token() string {
	return c.token
}

// apiError is the error envelope returned by the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope apiError
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Code == "" {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return &envelope
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SignIn authenticates and stores the returned access token.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &payload)
	if err != nil {
		return err
	}
	c.token = payload.AccessToken
	return nil
}

// GetAll fetches the caller's progress mapping.
func (c *Client) GetAll(ctx context.Context) (map[string]bool, error) {
	progress := map[string]bool{}
	if err := c.do(ctx, http.MethodGet, "/api/progress", nil, &progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// Upsert writes one task's completion state.
func (c *Client) Upsert(ctx context.Context, taskID string, completed bool) error {
	return c.do(ctx, http.MethodPost, "/api/progress", map[string]any{
		"taskId":    taskID,
		"completed": completed,
	}, nil)
}

// ResetAll clears the caller's progress.
func (c *Client) ResetAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/progress", nil, nil)
}

// Stats fetches the admin aggregation payload.
func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	var payload json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/admin/stats", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Export downloads the checklist PDF.
func (c *Client) Export(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/export", nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("POST /api/export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope apiError
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Code == "" {
			return nil, "", fmt.Errorf("POST /api/export: status %d", resp.StatusCode)
		}
		return nil, "", &envelope
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}
	return data, filenameFromDisposition(resp.Header.Get("Content-Disposition")), nil
}

func filenameFromDisposition(header string) string {
	const marker = `filename="`
	start := strings.Index(header, marker)
	if start < 0 {
		return "checklist.pdf"
	}
	rest := header[start+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "checklist.pdf"
	}
	return rest[:end]
}
