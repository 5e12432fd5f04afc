// Package api exposes the prompt service over HTTP: a streaming endpoint
// forwarding output chunks as server-sent events, a synchronous variant,
// and the client consuming them.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"promptd/pkg/account"
	"promptd/pkg/chat"
	"promptd/pkg/chat/openai"
	"promptd/pkg/config"
	"promptd/pkg/providers/google"
	"promptd/pkg/providers/msgraph"
	"promptd/pkg/providers/speech"
	"promptd/pkg/session"
	"promptd/pkg/tools"
)

// Server wires one authenticated request into a generation session: fresh
// session, fresh capability registry, fresh orchestrator. Nothing mutable
// is shared between requests beyond the read-only store and configuration.
type Server struct {
	cfg    *config.Config
	store  account.Store
	broker *account.Broker
	auth   Authenticator
	logger *slog.Logger
}

func NewServer(cfg *config.Config, store account.Store, broker *account.Broker, auth Authenticator) *Server {
	return &Server{
		cfg:    cfg,
		store:  store,
		broker: broker,
		auth:   auth,
		logger: slog.Default(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("POST /v1/prompt", s.handlePrompt)
	mux.HandleFunc("POST /v1/prompt/stream", s.handlePromptStream)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "promptd is running.")
}

func (s *Server) newSession(userID string) (*session.Session, error) {
	var opts []session.Option
	if s.cfg.LogDir != "" {
		opts = append(opts, session.WithLogDir(s.cfg.LogDir))
	} else {
		opts = append(opts, session.WithHandler(s.logger.Handler()))
	}
	return session.New(userID, opts...)
}

// capabilityManagers assembles the capability sources for one user: the
// configured identity providers, the speech stub, and any MCP servers.
func (s *Server) capabilityManagers(userID string) []tools.Manager {
	var mgrs []tools.Manager
	if _, ok := s.cfg.Providers["microsoft"]; ok {
		mgrs = append(mgrs, tools.NewStaticManager(msgraph.New(s.broker, userID).ToolDefs()...))
	}
	if _, ok := s.cfg.Providers["google"]; ok {
		mgrs = append(mgrs, tools.NewStaticManager(google.New(s.broker, userID).ToolDefs()...))
	}
	mgrs = append(mgrs, tools.NewStaticManager(speech.ToolDefs()...))
	for _, mc := range s.cfg.MCP {
		if m := mc.Manager(); m != nil {
			mgrs = append(mgrs, m)
		}
	}
	return mgrs
}

// newOrchestrator builds the per-request orchestration stack. Failures
// here are the fatal kind: the stream has not started yet and the caller
// gets a plain HTTP error.
func (s *Server) newOrchestrator(ctx context.Context, userID string) (*chat.Orchestrator, func(), error) {
	mgrs := s.capabilityManagers(userID)
	cleanup := func() {
		for _, m := range mgrs {
			m.Close()
		}
	}

	defs, err := tools.CollectDefs(ctx, mgrs)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	reg, err := tools.NewRegistry(defs...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	factory, err := s.cfg.ModelFactory()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if s.cfg.PerUserEngineKey {
		if oc, ok := factory.(*openai.Config); ok {
			apiToken, err := s.store.GetAPIToken(ctx, userID)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			userConfig := *oc
			userConfig.APIKey = apiToken
			userConfig.APIKeyFromEnv = ""
			factory = &userConfig
		}
	}
	agent, err := factory.NewAgent(ctx, s.cfg.SystemPromptOrDefault(), defs)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return chat.New(agent, reg), cleanup, nil
}
