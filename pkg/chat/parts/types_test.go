package parts

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionResponseMarshalError(t *testing.T) {
	t.Parallel()

	fr := &FunctionResponse{
		ID:    "c1",
		Name:  "flaky",
		Error: errors.New("upstream said no"),
	}
	encoded, err := json.Marshal(fr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c1","name":"flaky","response":null,"error":"upstream said no"}`, string(encoded))
}

func TestFunctionResponseUnmarshalError(t *testing.T) {
	t.Parallel()

	var fr FunctionResponse
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","name":"flaky","error":"boom"}`), &fr))
	assert.Equal(t, "c1", fr.ID)
	require.Error(t, fr.Error)
	assert.Equal(t, "boom", fr.Error.Error())
}

func TestFunctionResponseUnmarshalBadTypes(t *testing.T) {
	t.Parallel()

	var fr FunctionResponse
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &fr))
	assert.Error(t, json.Unmarshal([]byte(`{"error":17}`), &fr))
}
