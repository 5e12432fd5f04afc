package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptd/pkg/account"
	"promptd/pkg/chat"
	"promptd/pkg/chat/openai"
	"promptd/pkg/chat/parts"
	"promptd/pkg/config"
	"promptd/pkg/tools"
)

// scriptAgent replays fixed part streams, one per generation call.
type scriptAgent struct {
	streams [][]parts.Part
	errs    []error
	calls   int
}

func (a *scriptAgent) SendMessageStream(_ context.Context, _ []parts.Part) iter.Seq2[*parts.Part, error] {
	idx := a.calls
	a.calls++
	return func(yield func(*parts.Part, error) bool) {
		if idx >= len(a.streams) {
			yield(nil, fmt.Errorf("script exhausted at call %d", idx+1))
			return
		}
		for i := range a.streams[idx] {
			if !yield(&a.streams[idx][i], nil) {
				return
			}
		}
		if idx < len(a.errs) && a.errs[idx] != nil {
			yield(nil, a.errs[idx])
		}
	}
}

// scriptModel satisfies config.ModelConfig with a canned agent.
type scriptModel struct {
	agent chat.Agent
}

func (m *scriptModel) Name() string { return "scripted" }

func (m *scriptModel) NewAgent(context.Context, string, []tools.ToolDefinition) (chat.Agent, error) {
	return m.agent, nil
}

type fakeStore struct {
	refreshTokens map[string]string
	apiTokens     map[string]string
}

func (s *fakeStore) GetRefreshToken(_ context.Context, userID, providerID string) (string, error) {
	token, ok := s.refreshTokens[userID+"/"+providerID]
	if !ok {
		return "", fmt.Errorf("%w: user=%s", account.ErrIdentityNotFound, userID)
	}
	return token, nil
}

func (s *fakeStore) GetAPIToken(_ context.Context, userID string) (string, error) {
	token, ok := s.apiTokens[userID]
	if !ok {
		return "", fmt.Errorf("%w: user=%s", account.ErrIdentityNotFound, userID)
	}
	return token, nil
}

func newTestServer(t *testing.T, agent chat.Agent) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		ModelName:    "scripted",
		ModelConfigs: []config.ModelConfig{&scriptModel{agent: agent}},
	}
	store := &fakeStore{}
	broker := account.NewBroker(store, nil)
	srv := NewServer(cfg, store, broker, &HeaderAuthenticator{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestPromptStreamEndToEnd(t *testing.T) {
	t.Parallel()

	agent := &scriptAgent{streams: [][]parts.Part{{
		{Role: parts.RoleAssistant, Text: "Hello"},
		{Text: ", world."},
	}}}
	ts := newTestServer(t, agent)
	client := NewClient(ts.URL, WithHeader("X-User-Id", "alice"))

	var chunks []string
	for chunk, err := range client.PromptStream(context.Background(), "hi") {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"Hello", ", world."}, chunks)
}

func TestPromptStreamDoneCarriesFullReply(t *testing.T) {
	t.Parallel()

	agent := &scriptAgent{streams: [][]parts.Part{{
		{Role: parts.RoleAssistant, Text: "part one "},
		{Text: "part two"},
	}}}
	ts := newTestServer(t, agent)

	resp := postPrompt(t, ts, "/v1/prompt/stream", "hi", "alice")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(t, resp)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "done", last.name)

	var done doneData
	require.NoError(t, json.Unmarshal([]byte(last.data), &done))
	assert.Equal(t, "part one part two", done.Response)
	assert.NotEmpty(t, done.SessionID)
}

func TestPromptStreamToolFailureDegrades(t *testing.T) {
	t.Parallel()

	// convert_text_to_audio is always registered and always fails; the
	// engine gets the failure as a tool result and keeps generating.
	agent := &scriptAgent{streams: [][]parts.Part{
		{{FunctionCall: &parts.FunctionCall{
			ID:   "c1",
			Name: "convert_text_to_audio",
			Args: map[string]any{"text": "hello"},
		}}},
		{{Role: parts.RoleAssistant, Text: "I cannot speak yet."}},
	}}
	ts := newTestServer(t, agent)
	client := NewClient(ts.URL, WithHeader("X-User-Id", "alice"))

	reply, err := client.Prompt(context.Background(), "say hello out loud")
	require.NoError(t, err)
	assert.Equal(t, "I cannot speak yet.", reply)
}

func TestPromptStreamEngineFailure(t *testing.T) {
	t.Parallel()

	agent := &scriptAgent{
		streams: [][]parts.Part{{{Role: parts.RoleAssistant, Text: "partial"}}},
		errs:    []error{fmt.Errorf("engine unavailable")},
	}
	ts := newTestServer(t, agent)

	resp := postPrompt(t, ts, "/v1/prompt/stream", "hi", "alice")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := readEvents(t, resp)
	require.Len(t, events, 2)
	assert.Equal(t, "chunk", events[0].name)
	assert.Equal(t, "error", events[1].name)

	var failure errorData
	require.NoError(t, json.Unmarshal([]byte(events[1].data), &failure))
	assert.Equal(t, "GENERATION_FAILED", failure.Code)
	assert.Contains(t, failure.Message, "engine unavailable")
}

func TestPromptSync(t *testing.T) {
	t.Parallel()

	agent := &scriptAgent{streams: [][]parts.Part{{
		{Role: parts.RoleAssistant, Text: "All "},
		{Text: "done."},
	}}}
	ts := newTestServer(t, agent)

	resp := postPrompt(t, ts, "/v1/prompt", "hi", "alice")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var done doneData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&done))
	assert.Equal(t, "All done.", done.Response)
	assert.NotEmpty(t, done.SessionID)
}

func TestPromptRequiresIdentity(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &scriptAgent{})
	resp := postPrompt(t, ts, "/v1/prompt", "hi", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPromptPerUserKeyWithoutToken(t *testing.T) {
	t.Parallel()

	// Identity resolution failures before the stream starts are fatal and
	// reported as plain HTTP errors, not degraded tool turns.
	cfg := &config.Config{
		ModelName:        "gpt",
		ModelConfigs:     []config.ModelConfig{&openai.Config{ConfigName: "gpt", ModelName: "gpt-4.1"}},
		PerUserEngineKey: true,
	}
	store := &fakeStore{}
	srv := NewServer(cfg, store, account.NewBroker(store, nil), &HeaderAuthenticator{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp := postPrompt(t, ts, "/v1/prompt", "hi", "alice")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPromptRequiresMessage(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &scriptAgent{})
	resp := postPrompt(t, ts, "/v1/prompt", "", "alice")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRootBanner(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &scriptAgent{})
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func postPrompt(t *testing.T, ts *httptest.Server, path, message, userID string) *http.Response {
	t.Helper()
	body, err := json.Marshal(promptInput{Message: message})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

type rawEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, resp *http.Response) []rawEvent {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var events []rawEvent
	var current rawEvent
	for _, line := range strings.Split(string(body), "\n") {
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "" && current.name != "":
			events = append(events, current)
			current = rawEvent{}
		}
	}
	return events
}
