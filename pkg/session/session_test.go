package session

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDsAreUnique(t *testing.T) {
	t.Parallel()

	a, err := New("alice")
	require.NoError(t, err)
	b, err := New("alice")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestLogDirWritesPerComponentFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New("alice", WithLogDir(dir))
	require.NoError(t, err)

	logger, err := s.GetLogger("chat")
	require.NoError(t, err)
	logger.Info("hello", "k", "v")
	require.NoError(t, s.Close())

	f, err := os.Open(filepath.Join(dir, s.ID(), "chat.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var record map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, s.ID(), record["session_id"])
	assert.Equal(t, "alice", record["user_id"])
	assert.Equal(t, "chat", record["component"])
}

func TestMalformedLogName(t *testing.T) {
	t.Parallel()

	s, err := New("alice", WithLogDir(t.TempDir()))
	require.NoError(t, err)
	_, err = s.GetLogger("../escape")
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := New("alice")
	require.NoError(t, err)
	ctx := s.With(context.Background())

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestLoggerWithoutSessionDiscards(t *testing.T) {
	t.Parallel()

	logger := Logger(context.Background(), "chat")
	require.NotNil(t, logger)
	logger.Info("goes nowhere")
}
