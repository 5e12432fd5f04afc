// Package session scopes one inbound request: a freshly minted session ID,
// the authenticated user, and the loggers every component of that request
// writes through. A session is never shared across requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey struct{}

type logHandler struct {
	f *os.File
	h slog.Handler
}

func newLogHandler(p string, opts *slog.HandlerOptions) (*logHandler, error) {
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &logHandler{
		f: f,
		h: slog.NewJSONHandler(f, opts),
	}, nil
}

func (h *logHandler) Close() error {
	return h.f.Close()
}

type Session struct {
	id        string
	userID    string
	createdAt time.Time

	base     slog.Handler
	logDir   string
	handlers map[string]*logHandler
}

type Option func(*Session)

// WithHandler routes all session loggers to the given slog handler.
func WithHandler(h slog.Handler) Option {
	return func(s *Session) {
		s.base = h
	}
}

// WithLogDir writes each component's log to its own JSONL file under
// dir/<session-id>/, the same per-concern split the CLI logs use.
func WithLogDir(dir string) Option {
	return func(s *Session) {
		s.logDir = dir
	}
}

func New(userID string, opts ...Option) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:        id.String(),
		userID:    userID,
		createdAt: time.Now(),
		base:      slog.Default().Handler(),
		handlers:  map[string]*logHandler{},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) handler(name string) (slog.Handler, error) {
	if s.logDir == "" {
		return s.base, nil
	}
	if h, ok := s.handlers[name]; ok {
		return h.h, nil
	}
	if strings.Contains(name, "/") {
		return nil, fmt.Errorf("malformed log name %s", name)
	}
	dir := filepath.Join(s.logDir, s.id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	h, err := newLogHandler(filepath.Join(dir, name+".jsonl"), nil)
	if err != nil {
		return nil, err
	}
	s.handlers[name] = h
	return h.h, nil
}

// GetLogger returns the logger for one component of this session.
func (s *Session) GetLogger(name string) (*slog.Logger, error) {
	h, err := s.handler(name)
	if err != nil {
		return nil, err
	}
	return slog.New(h).With(
		"session_id", s.id,
		"user_id", s.userID,
		"component", name,
	), nil
}

func (s *Session) Close() error {
	var allerr error
	for name, h := range s.handlers {
		if err := h.Close(); err != nil {
			allerr = errors.Join(allerr, fmt.Errorf("failed to close %s: %w", name, err))
		}
	}
	return allerr
}

// With embeds the session into the context.
func (s *Session) With(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}

// Logger fetches a component logger from the session on the context,
// falling back to a discarding logger when there is none.
func Logger(ctx context.Context, name string) *slog.Logger {
	s, ok := FromContext(ctx)
	if !ok {
		return slog.New(slog.DiscardHandler)
	}
	l, err := s.GetLogger(name)
	if err != nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
