// Package providers defines the domain types shared by the capability
// provider adapters and the error surface of external-service calls.
package providers

import (
	"context"
	"fmt"

	"promptd/pkg/account"
)

// Event is one calendar entry, times formatted as "2006-01-02 15:04" UTC.
type Event struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Subject string `json:"subject"`
}

// Message is one mailbox entry.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// File is one drive entry.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TokenSource hands out a fresh access token for every external call.
// *account.Broker is the production implementation.
type TokenSource interface {
	AccessToken(ctx context.Context, userID, providerID string) (account.AccessToken, error)
}

// UpstreamError reports a failed or malformed response from an external
// service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("upstream %s failed: status %d", e.Service, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
