// Package remote talks to the n8n analytics webhook. Fetch pulls the
// latest analysis bundle; Submit posts an assembled dashboard payload.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ceoboard/internal/domain"
)

const defaultTimeout = 15 * time.Second

// maxBodyBytes bounds how much of a webhook response we keep around.
const maxBodyBytes = 1 << 20

const (
	// KindHTTP marks an error from a non-2xx status with a reachable server.
	KindHTTP = "http"
	// KindTransport marks a network or protocol failure before any status
	// line was read.
	KindTransport = "transport"
)

// Error is the discriminated failure of a webhook call. Kind tells the
// caller whether the server answered at all.
type Error struct {
	Kind    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("webhook: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("webhook: %s", e.Message)
}

// Response carries a successful webhook reply. JSON is nil when the body
// was not valid JSON; Body always holds the raw text.
type Response struct {
	Status int
	Body   string
	JSON   json.RawMessage
}

// Client calls the configured webhook URL.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// FetchAnalysis GETs the latest analysis bundle from the webhook.
func (c *Client) FetchAnalysis(ctx context.Context) (*domain.AnalysisBundle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &Error{Kind: KindHTTP, Status: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	var bundle domain.AnalysisBundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("decode bundle: %v", err)}
	}
	return &bundle, nil
}

// Submit POSTs a payload and returns the reply. A non-2xx status or a
// transport failure comes back as *Error, never mixed into Response.
func (c *Client) Submit(ctx context.Context, payload any) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("encode payload: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &Error{Kind: KindHTTP, Status: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	out := &Response{Status: res.StatusCode, Body: string(body)}
	if json.Valid(body) {
		out.JSON = json.RawMessage(body)
	}
	return out, nil
}
