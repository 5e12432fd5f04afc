package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"promptd/pkg/account"
	"promptd/pkg/chat"
)

type promptInput struct {
	Message string `json:"message"`
}

func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.auth.UserID(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func decodeInput(w http.ResponseWriter, r *http.Request) (promptInput, bool) {
	var input promptInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return input, false
	}
	if input.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return input, false
	}
	return input, true
}

func setupStatus(err error) int {
	if errors.Is(err, account.ErrIdentityNotFound) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// handlePrompt answers a prompt in one JSON response, collecting the
// chunks before replying.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	input, ok := decodeInput(w, r)
	if !ok {
		return
	}

	sess, err := s.newSession(userID)
	if err != nil {
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	defer sess.Close()
	ctx := sess.With(r.Context())

	orch, cleanup, err := s.newOrchestrator(ctx, userID)
	if err != nil {
		s.logger.Error("failed to build orchestrator", "error", err, "session_id", sess.ID())
		http.Error(w, "failed to start generation", setupStatus(err))
		return
	}
	defer cleanup()

	var reply strings.Builder
	if err := orch.Reply(ctx, input.Message, chat.NewWriterSink(&reply)); err != nil {
		s.logger.Error("generation failed", "error", err, "session_id", sess.ID())
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doneData{
		Response:  reply.String(),
		SessionID: sess.ID(),
	})
}

// handlePromptStream answers a prompt as a server-sent-event stream.
// Whatever was flushed before a failure stays with the client; the stream
// just ends after an error event.
func (s *Server) handlePromptStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	input, ok := decodeInput(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sess, err := s.newSession(userID)
	if err != nil {
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	defer sess.Close()
	ctx := sess.With(r.Context())

	orch, cleanup, err := s.newOrchestrator(ctx, userID)
	if err != nil {
		s.logger.Error("failed to build orchestrator", "error", err, "session_id", sess.ID())
		http.Error(w, "failed to start generation", setupStatus(err))
		return
	}
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sink := newSSESink(w, flusher, sess.ID())
	if err := orch.Reply(ctx, input.Message, sink); err != nil {
		s.logger.Error("generation failed", "error", err, "session_id", sess.ID())
		// Best effort: the sink itself may be the broken part.
		writeEvent(w, flusher, "error", errorData{
			Code:    "GENERATION_FAILED",
			Message: err.Error(),
		})
		return
	}
	s.logger.Info("stream completed", "session_id", sess.ID(), "turns", orch.Conversation().Len())
}
