package ceoboardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal ceoboard HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// CriticalAction is a board opportunity.
type CriticalAction struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Impact  string `json:"impact,omitempty"`
	Urgency string `json:"urgency"`
	Details string `json:"details,omitempty"`
}

// QuickAction is a next-30-days item.
type QuickAction struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Board holds both collections.
type Board struct {
	CriticalActions []CriticalAction `json:"critical_actions"`
	QuickActions    []QuickAction    `json:"quick_actions"`
}

// Plan is a recorded create_plan reply.
type Plan struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// SubmitResult is what /submit returns.
type SubmitResult struct {
	Status   int    `json:"status"`
	Body     string `json:"body"`
	Plan     *Plan  `json:"plan,omitempty"`
	UserCode string `json:"user_code"`
}

// Metrics wraps the active variant's record.
type Metrics struct {
	Variant string          `json:"variant"`
	Values  json.RawMessage `json:"values"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login exchanges the user code for a bearer token and stores it on the
// client.
func (c *Client) Login(ctx context.Context, code string) (string, error) {
	var resp struct {
		Token    string `json:"token"`
		UserCode string `json:"user_code"`
	}
	if err := c.do(ctx, http.MethodPost, "v1/session/login", map[string]any{"code": code}, &resp); err != nil {
		return "", err
	}
	c.BearerToken = resp.Token
	return resp.Token, nil
}

// Board returns both collections, seeding on first load.
func (c *Client) Board(ctx context.Context) (Board, error) {
	var resp Board
	err := c.do(ctx, http.MethodGet, "v1/board", nil, &resp)
	return resp, err
}

// AddCritical appends a critical action.
func (c *Client) AddCritical(ctx context.Context, action, impact, urgency, details string) (CriticalAction, error) {
	body := map[string]any{
		"action":  action,
		"impact":  impact,
		"urgency": urgency,
		"details": details,
	}
	var resp CriticalAction
	err := c.do(ctx, http.MethodPost, "v1/board/critical", body, &resp)
	return resp, err
}

// AddQuick appends a quick action.
func (c *Client) AddQuick(ctx context.Context, action string) (QuickAction, error) {
	var resp QuickAction
	err := c.do(ctx, http.MethodPost, "v1/board/quick", map[string]any{"action": action}, &resp)
	return resp, err
}

// RemoveAction deletes an action by kind and id.
func (c *Client) RemoveAction(ctx context.Context, kind, id string) error {
	endpoint := fmt.Sprintf("v1/board/%s/%s", url.PathEscape(kind), url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Metrics returns the active variant's record.
func (c *Client) Metrics(ctx context.Context) (Metrics, error) {
	var resp Metrics
	err := c.do(ctx, http.MethodGet, "v1/metrics", nil, &resp)
	return resp, err
}

// SaveMetrics replaces the record wholesale.
func (c *Client) SaveMetrics(ctx context.Context, values map[string]string) (Metrics, error) {
	var resp Metrics
	err := c.do(ctx, http.MethodPut, "v1/metrics", map[string]any{"values": values}, &resp)
	return resp, err
}

// Submit posts the assembled dashboard under the given action tag.
func (c *Client) Submit(ctx context.Context, action string) (SubmitResult, error) {
	var resp SubmitResult
	err := c.do(ctx, http.MethodPost, "v1/submit", map[string]any{"action": action}, &resp)
	return resp, err
}

// Plans lists recorded plan submissions.
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var resp []Plan
	err := c.do(ctx, http.MethodGet, "v1/plans", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
