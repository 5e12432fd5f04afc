// Package google adapts the Google Calendar and Gmail REST endpoints into
// capability operations. Every operation requests a fresh access token from
// the broker before it touches a service.
package google

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
	providerID             = "google"
	defaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"
	defaultGmailBaseURL    = "https://gmail.googleapis.com/gmail/v1"
)

// Client calls the Google APIs on behalf of one user.
type Client struct {
	tokens          providers.TokenSource
	userID          string
	calendarBaseURL string
	gmailBaseURL    string
	hc              *http.Client
}

type Option func(*Client)

// WithCalendarBaseURL points the client at a different Calendar endpoint.
func WithCalendarBaseURL(u string) Option {
	return func(c *Client) {
		c.calendarBaseURL = u
	}
}

// WithGmailBaseURL points the client at a different Gmail endpoint.
func WithGmailBaseURL(u string) Option {
	return func(c *Client) {
		c.gmailBaseURL = u
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
		tokens:          tokens,
		userID:          userID,
		calendarBaseURL: defaultCalendarBaseURL,
		gmailBaseURL:    defaultGmailBaseURL,
		hc:              &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

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
		return nil, &providers.UpstreamError{Service: "google", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+string(token))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &providers.UpstreamError{Service: "google", Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, &providers.UpstreamError{Service: "google", StatusCode: resp.StatusCode}
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
		return &providers.UpstreamError{Service: "google", Err: fmt.Errorf("unparsable response: %w", err)}
	}
	return nil
}
