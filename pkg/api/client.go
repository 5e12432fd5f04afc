package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	"promptd/pkg/sse"
)

// Client consumes the prompt API. PromptStream exposes the reply as a
// plain enumerable sequence, so the service is usable without speaking
// HTTP at the call site.
type Client struct {
	baseURL string
	hc      *http.Client
	headers http.Header
}

type ClientOption func(*Client)

// WithClientHTTPClient overrides the HTTP client.
func WithClientHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithHeader attaches a header to every request, e.g. the identity claim.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		hc:      http.DefaultClient,
		headers: http.Header{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) post(ctx context.Context, path, message string) (*http.Response, error) {
	body, err := json.Marshal(promptInput{Message: message})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header[k] = v
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("prompt request failed: status %d: %s", resp.StatusCode, msg)
	}
	return resp, nil
}

// Prompt sends a message and waits for the complete reply.
func (c *Client) Prompt(ctx context.Context, message string) (string, error) {
	resp, err := c.post(ctx, "/v1/prompt", message)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var done doneData
	if err := json.NewDecoder(resp.Body).Decode(&done); err != nil {
		return "", err
	}
	return done.Response, nil
}

// PromptStream sends a message and yields the reply chunk by chunk.
func (c *Client) PromptStream(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, "/v1/prompt/stream", message)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()
		scanner := sse.NewScanner(resp.Body)
		for {
			ev, err := scanner.Scan()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield("", err)
				return
			}
			switch ev.Event {
			case "chunk":
				var chunk chunkData
				if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
					yield("", err)
					return
				}
				if !yield(chunk.Text, nil) {
					return
				}
			case "done":
				return
			case "error":
				var failure errorData
				if err := json.Unmarshal([]byte(ev.Data), &failure); err != nil {
					yield("", err)
					return
				}
				yield("", fmt.Errorf("stream failed: %s: %s", failure.Code, failure.Message))
				return
			}
		}
	}
}
