package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoReq struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type echoResp struct {
	Echoed string `json:"echoed"`
}

func echoDef() ToolDefinition {
	return NewDef("echo", "Repeats the message",
		func(_ context.Context, req echoReq) (echoResp, error) {
			out := ""
			for i := 0; i < req.Count; i++ {
				out += req.Message
			}
			return echoResp{Echoed: out}, nil
		})
}

func TestRegistryRun(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(echoDef())
	require.NoError(t, err)

	resp, err := reg.Run(context.Background(), "echo", map[string]any{
		"message": "ab",
		"count":   2,
	})
	require.NoError(t, err)
	assert.Equal(t, echoResp{Echoed: "abab"}, resp)
}

func TestRegistryUnknownCapability(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)

	_, err = reg.Run(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestRegistryCaseSensitiveLookup(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(echoDef())
	require.NoError(t, err)

	_, err = reg.Run(context.Background(), "Echo", map[string]any{"message": "x"})
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestRegistryDuplicateName(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(echoDef(), echoDef())
	assert.ErrorIs(t, err, ErrDuplicateCapability)
}

func TestRegistryDefsPreserveOrder(t *testing.T) {
	t.Parallel()

	noop := func(_ context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, nil
	}
	reg, err := NewRegistry(
		NewDef("zeta", "", noop),
		NewDef("alpha", "", noop),
		NewDef("mid", "", noop),
	)
	require.NoError(t, err)

	var names []string
	for _, d := range reg.Defs() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestRunMalformedArguments(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(echoDef())
	require.NoError(t, err)

	_, err = reg.Run(context.Background(), "echo", map[string]any{
		"count": "not a number",
	})
	require.Error(t, err)
	var toolErr *ToolError
	assert.True(t, errors.As(err, &toolErr), "argument binding failures should be recoverable")
}

func TestRequestSchemaReflectsFields(t *testing.T) {
	t.Parallel()

	schema := echoDef().RequestSchema()
	require.NotNil(t, schema)
	_, ok := schema.Properties.Get("message")
	assert.True(t, ok)
	_, ok = schema.Properties.Get("count")
	assert.True(t, ok)
}
