// Package parts defines the chunk-level event model shared between the
// generation engine adapters and the streaming orchestrator.
package parts

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// FunctionCall is a request from the engine to invoke a named capability.
type FunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// FunctionResponse carries the result (or the failure) of a capability
// invocation back to the engine.
type FunctionResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Response any    `json:"response"`
	Error    error  `json:"error"`
}

func (fr *FunctionResponse) MarshalJSON() ([]byte, error) {
	var m map[string]any
	if fr != nil {
		m = map[string]any{
			"id":       fr.ID,
			"name":     fr.Name,
			"response": fr.Response,
		}
		if fr.Error != nil {
			m["error"] = fr.Error.Error()
		}
	}
	return json.Marshal(m)
}

func (fr *FunctionResponse) UnmarshalJSON(data []byte) error {
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if id, ok := m["id"]; ok {
		if fr.ID, ok = id.(string); !ok {
			return fmt.Errorf(`field "id" must be a string`)
		}
	}
	if name, ok := m["name"]; ok {
		if fr.Name, ok = name.(string); !ok {
			return fmt.Errorf(`field "name" must be a string`)
		}
	}
	if response, ok := m["response"]; ok {
		fr.Response = response
	}
	if errdata, ok := m["error"]; ok {
		if errstr, ok := errdata.(string); ok {
			fr.Error = errors.New(errstr)
		} else {
			return fmt.Errorf(`field "error" must be a string`)
		}
	}
	return nil
}

// Part is one incremental unit of engine input or output. An output part
// either carries a content delta (Text, with an optional Role marking the
// start of a new attributed run) or a function call; an input part carries
// user text or a function response.
type Part struct {
	// Role, when set, attributes this part and the run of parts that
	// follows until the next role signal.
	Role             Role              `json:"role,omitempty"`
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}
