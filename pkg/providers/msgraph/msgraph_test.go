package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptd/pkg/account"
	"promptd/pkg/providers"
)

// staticTokens counts token resolutions and hands out a fixed token.
type staticTokens struct {
	token string
	calls int
}

func (s *staticTokens) AccessToken(_ context.Context, userID, providerID string) (account.AccessToken, error) {
	s.calls++
	return account.AccessToken(s.token), nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *staticTokens) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	tokens := &staticTokens{token: "graph-token"}
	return New(tokens, "alice", WithBaseURL(ts.URL)), tokens
}

func TestFetchCurrentMonthEventsDrainsPages(t *testing.T) {
	t.Parallel()

	var baseURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/calendar/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer graph-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("$filter"), "start/dateTime ge")
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{
					"subject": "Standup",
					"start":   map[string]string{"dateTime": "2024-06-03T09:00:00.0000000"},
					"end":     map[string]string{"dateTime": "2024-06-03T09:30:00.0000000"},
				},
			},
			"@odata.nextLink": baseURL + "/me/calendar/events/page2",
		})
	})
	mux.HandleFunc("/me/calendar/events/page2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{
					"subject": "Review",
					"start":   map[string]string{"dateTime": "2024-06-10T14:00:00"},
					"end":     map[string]string{"dateTime": "2024-06-10T15:00:00"},
				},
			},
		})
	})

	c, tokens := newTestClient(t, mux)
	baseURL = c.baseURL

	events, err := c.FetchCurrentMonthEvents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []providers.Event{
		{Start: "2024-06-03 09:00", End: "2024-06-03 09:30", Subject: "Standup"},
		{Start: "2024-06-10 14:00", End: "2024-06-10 15:00", Subject: "Review"},
	}, events)
	// One token resolution per page: nothing is cached between requests.
	assert.Equal(t, 2, tokens.calls)
}

func TestFetchCurrentMonthEventsMissingTimes(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{{"subject": "broken"}},
		})
	}))

	_, err := c.FetchCurrentMonthEvents(context.Background())
	var upstream *providers.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "msgraph", upstream.Service)
}

func TestFetchInboxMessages(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/mailFolders/Inbox/messages", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("$top"))
		assert.Equal(t, "receivedDateTime DESC", r.URL.Query().Get("$orderby"))
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"subject": "First", "body": map[string]string{"contentType": "Text", "content": "hello"}},
				{"subject": "Second", "body": map[string]string{"contentType": "HTML", "content": "<p>hi</p>"}},
			},
		})
	}))

	messages, err := c.FetchInboxMessages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []providers.Message{
		{Subject: "First", Body: "hello"},
		{Subject: "Second", Body: "<p>hi</p>"},
	}, messages)
}

func TestSendMail(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/sendMail", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))

	err := c.SendMail(context.Background(), "Hi", "See you.", "bob@example.com")
	require.NoError(t, err)

	message, ok := got["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Hi", message["subject"])
}

func TestListRootFiles(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "drv1"})
	})
	mux.HandleFunc("/drives/drv1/items/root/children", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{
				{"id": "drv1!100", "name": "notes.txt"},
				{"id": "drv1!101", "name": "plan.md"},
			},
		})
	})

	c, _ := newTestClient(t, mux)
	files, err := c.ListRootFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []providers.File{
		{ID: "drv1!100", Name: "notes.txt"},
		{ID: "drv1!101", Name: "plan.md"},
	}, files)
}

func TestListRootFilesMissingName(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "drv1"})
	})
	mux.HandleFunc("/drives/drv1/items/root/children", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{{"id": "drv1!100"}},
		})
	})

	c, _ := newTestClient(t, mux)
	_, err := c.ListRootFiles(context.Background())
	var upstream *providers.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestFetchFileContent(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drives/drv1/items/drv1!100/content", r.URL.Path)
		fmt.Fprint(w, "file body")
	}))

	content, err := c.FetchFileContent(context.Background(), "drv1!100")
	require.NoError(t, err)
	assert.Equal(t, "file body", content)
}

func TestUpstreamStatusError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.FetchInboxMessages(context.Background())
	var upstream *providers.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
}
