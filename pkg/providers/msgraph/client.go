// Package msgraph adapts the Microsoft Graph mail, calendar and drive
// endpoints into capability operations. Every operation requests a fresh
// access token from the broker before it touches the service.
package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"promptd/pkg/providers"
)

const (
	providerID     = "microsoft"
	defaultBaseURL = "https://graph.microsoft.com/v1.0"
)

// Client calls Microsoft Graph on behalf of one user.
type Client struct {
	tokens  providers.TokenSource
	userID  string
	baseURL string
	hc      *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a different Graph endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

func New(tokens providers.TokenSource, userID string, opts ...Option) *Client {
	c := &Client{
		tokens:  tokens,
		userID:  userID,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do issues one authenticated request. The url is absolute: pagination
// links from Graph come back absolute and are followed as-is.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	token, err := c.tokens.AccessToken(ctx, c.userID, providerID)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &providers.UpstreamError{Service: "msgraph", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+string(token))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &providers.UpstreamError{Service: "msgraph", Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, &providers.UpstreamError{Service: "msgraph", StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &providers.UpstreamError{Service: "msgraph", Err: fmt.Errorf("unparsable response: %w", err)}
	}
	return nil
}
