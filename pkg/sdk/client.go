// Package sdk is a typed HTTP client for the claimsdesk API.
//
// It depends only on the standard library so importing it does not pull
// the server's dependency tree into consumers.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTimeout = 150 * time.Second

// Client calls the claimsdesk HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Ask answers a question. Strategy may be empty to use the server default.
func (c *Client) Ask(ctx context.Context, req AskRequest) (Answer, error) {
	var resp Answer
	err := c.do(ctx, http.MethodPost, "/v1/answers", req, http.StatusOK, &resp)
	return resp, err
}

// ThumbsUp records positive feedback for a conversation.
func (c *Client) ThumbsUp(ctx context.Context, conversationID string) error {
	score := 1
	return c.feedback(ctx, conversationID, Feedback{Score: &score})
}

// ThumbsDown records negative feedback for a conversation.
func (c *Client) ThumbsDown(ctx context.Context, conversationID string) error {
	score := -1
	return c.feedback(ctx, conversationID, Feedback{Score: &score})
}

// TagRelevance records a relevance tag for a conversation.
// Valid tags: RELEVANT, PARTLY_RELEVANT, NON_RELEVANT.
func (c *Client) TagRelevance(ctx context.Context, conversationID, relevance string) error {
	return c.feedback(ctx, conversationID, Feedback{Relevance: relevance})
}

func (c *Client) feedback(ctx context.Context, conversationID string, fb Feedback) error {
	path := "/v1/conversations/" + url.PathEscape(conversationID) + "/feedback"
	return c.do(ctx, http.MethodPost, path, fb, http.StatusNoContent, nil)
}

// Conversations lists recent conversations. limit <= 0 uses the server
// default; relevance may be empty for no filter.
func (c *Client) Conversations(ctx context.Context, limit int, relevance string) ([]Conversation, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if relevance != "" {
		q.Set("relevance", relevance)
	}
	path := "/v1/conversations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ConversationList
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Stats returns aggregated feedback counters.
func (c *Client) Stats(ctx context.Context) (FeedbackStats, error) {
	var resp FeedbackStats
	err := c.do(ctx, http.MethodGet, "/v1/feedback/stats", nil, http.StatusOK, &resp)
	return resp, err
}

// Health returns the server health report. A degraded server responds
// with 503 but still carries a report, so both are returned.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return Health{}, fmt.Errorf("build request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("perform request: %w", err)
	}
	defer res.Body.Close()

	var h Health
	if err := json.NewDecoder(res.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("decode response: %w", err)
	}
	return h, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != wantStatus {
		return parseAPIError(res)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func parseAPIError(res *http.Response) error {
	apiErr := &APIError{Status: res.StatusCode}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	return apiErr
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("claimsdesk: %s (%s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("claimsdesk: http %d", e.Status)
}
