// Package openai covers the parts of the OpenAI Realtime SIP API used to
// answer AI calls: accepting incoming calls and verifying webhooks.
package openai

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

	"github.com/soyeahso/warmline/internal/version"
)

const DefaultBaseURL = "https://api.openai.com"

// APIError is a non-success response from the OpenAI REST API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: status %d: %s", e.Status, e.Body)
}

// Client is a direct HTTP client for the OpenAI REST API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a client authenticated with a bearer API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tool declares a function the model may call during the session.
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// FunctionTool declares a function tool that takes no arguments.
func FunctionTool(name, description string) Tool {
	return Tool{
		Type:        "function",
		Name:        name,
		Description: description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

type AudioOutput struct {
	Voice string `json:"voice,omitempty"`
}

type AudioConfig struct {
	Output AudioOutput `json:"output"`
}

// AcceptRequest is the session configuration sent when accepting a call.
type AcceptRequest struct {
	Type         string       `json:"type"`
	Model        string       `json:"model"`
	Instructions string       `json:"instructions,omitempty"`
	Audio        *AudioConfig `json:"audio,omitempty"`
	Tools        []Tool       `json:"tools,omitempty"`
}

// AcceptCall answers an incoming SIP call with the given session configuration.
func (c *Client) AcceptCall(ctx context.Context, callID string, req AcceptRequest) error {
	if req.Type == "" {
		req.Type = "realtime"
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/realtime/calls/%s/accept", c.baseURL, url.PathEscape(callID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}
