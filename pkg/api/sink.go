package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Payload shapes of the stream events.
type chunkData struct {
	Text string `json:"text"`
}

type doneData struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sseSink forwards output chunks to the HTTP response as server-sent
// events and closes the stream with a done event carrying the full reply.
type sseSink struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
	full      strings.Builder
}

func newSSESink(w http.ResponseWriter, flusher http.Flusher, sessionID string) *sseSink {
	return &sseSink{w: w, flusher: flusher, sessionID: sessionID}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (s *sseSink) Write(ctx context.Context, chunk string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.full.WriteString(chunk)
	return writeEvent(s.w, s.flusher, "chunk", chunkData{Text: chunk})
}

func (s *sseSink) Close() error {
	return writeEvent(s.w, s.flusher, "done", doneData{
		Response:  s.full.String(),
		SessionID: s.sessionID,
	})
}
