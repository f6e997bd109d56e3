// Package history reads thread lists and thread messages from the chat API.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"supplier-chat/internal/models"
	"supplier-chat/internal/session"
)

const defaultTimeout = 10 * time.Second

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("history: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("history: unexpected status %d: %s", e.StatusCode, e.Message)
}

// Client calls the chat API on behalf of the session user.
type Client struct {
	baseURL *url.URL
	tokens  session.Provider
	http    *http.Client
}

// NewClient returns a client for the API rooted at baseURL. A nil httpClient
// gets a traced client with a default timeout.
func NewClient(baseURL string, tokens session.Provider, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("history: parse url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{baseURL: u, tokens: tokens, http: httpClient}, nil
}

// Threads lists the threads of the session user.
func (c *Client) Threads(ctx context.Context) ([]models.Thread, error) {
	var threads []models.Thread
	if err := c.get(ctx, c.baseURL.JoinPath("threads"), &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// ThreadMessages returns the stored messages of a thread, oldest first.
func (c *Client) ThreadMessages(ctx context.Context, threadID int64) ([]models.Message, error) {
	var messages []models.Message
	if err := c.get(ctx, c.baseURL.JoinPath("threads", strconv.FormatInt(threadID, 10)), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) get(ctx context.Context, u *url.URL, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("history: decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the "error" field of a relay error body.
func errorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error
}
