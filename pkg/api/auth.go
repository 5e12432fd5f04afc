package api

import (
	"errors"
	"net/http"
)

// ErrUnauthenticated reports a request without a resolvable caller
// identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the authenticated user of a request. Token
// verification itself lives in front of this service; promptd only
// consumes the resolved identity.
type Authenticator interface {
	UserID(r *http.Request) (string, error)
}

// HeaderAuthenticator trusts the user id claim a fronting gateway injects
// into a request header.
type HeaderAuthenticator struct {
	// Header holds the header name, X-User-Id when empty.
	Header string
}

func (a *HeaderAuthenticator) UserID(r *http.Request) (string, error) {
	name := a.Header
	if name == "" {
		name = "X-User-Id"
	}
	id := r.Header.Get(name)
	if id == "" {
		return "", ErrUnauthenticated
	}
	return id, nil
}
