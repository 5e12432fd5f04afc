package account

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"promptd/pkg/session"
)

// AccessToken is a short-lived provider token. It lives only for the call
// that requested it and is never persisted.
type AccessToken string

// Redacted returns a loggable form of the token. The full value must never
// reach a log.
func (t AccessToken) Redacted() string {
	if len(t) <= 8 {
		return "****"
	}
	return string(t[:8]) + "****"
}

// TokenExchangeError reports a failed refresh-token exchange at the
// provider's token endpoint.
type TokenExchangeError struct {
	ProviderID string
	StatusCode int
	Err        error
}

func (e *TokenExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange with %s failed: %v", e.ProviderID, e.Err)
	}
	return fmt.Sprintf("token exchange with %s failed: status %d", e.ProviderID, e.StatusCode)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

// ProviderConfig is the static OAuth client configuration of one identity
// provider.
type ProviderConfig struct {
	TokenEndpoint string `toml:"token_endpoint"`
	ClientID      string `toml:"client_id"`
	ClientSecret  string `toml:"client_secret"`
	Scope         string `toml:"scope,omitempty"`
}

// Broker exchanges a stored refresh token for a provider access token.
// Every call performs a full round trip: no token is ever cached in process
// memory, trading latency for never holding a long-lived credential.
type Broker struct {
	store     Store
	providers map[string]ProviderConfig
	client    *http.Client
}

type BrokerOption func(*Broker)

// WithHTTPClient overrides the HTTP client used for token exchanges.
func WithHTTPClient(c *http.Client) BrokerOption {
	return func(b *Broker) {
		b.client = c
	}
}

func NewBroker(store Store, providers map[string]ProviderConfig, opts ...BrokerOption) *Broker {
	b := &Broker{
		store:     store,
		providers: providers,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// AccessToken resolves a fresh access token for the user at the given
// provider. Failures are surfaced immediately; the broker never retries.
func (b *Broker) AccessToken(ctx context.Context, userID, providerID string) (AccessToken, error) {
	logger := session.Logger(ctx, "broker")

	pc, ok := b.providers[providerID]
	if !ok {
		return "", fmt.Errorf("no provider configuration for %s", providerID)
	}
	refreshToken, err := b.store.GetRefreshToken(ctx, userID, providerID)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", pc.ClientID)
	form.Set("client_secret", pc.ClientSecret)
	if pc.Scope != "" {
		form.Set("scope", pc.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &TokenExchangeError{ProviderID: providerID, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", &TokenExchangeError{ProviderID: providerID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TokenExchangeError{ProviderID: providerID, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logger.Warn("token endpoint rejected exchange", "provider", providerID, "status", resp.StatusCode)
		return "", &TokenExchangeError{ProviderID: providerID, StatusCode: resp.StatusCode}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &TokenExchangeError{ProviderID: providerID, StatusCode: resp.StatusCode, Err: err}
	}
	if tokenResp.AccessToken == "" {
		return "", &TokenExchangeError{
			ProviderID: providerID,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response carries no access_token"),
		}
	}
	token := AccessToken(tokenResp.AccessToken)
	logger.Debug("exchanged refresh token", "provider", providerID, "token", token.Redacted())
	return token, nil
}
