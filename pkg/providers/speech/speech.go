// Package speech exposes the text-to-audio capability. The conversion
// backend is not wired yet; the capability reports the failure to the
// engine instead of terminating the session.
package speech

import (
	"context"
	"errors"

	"promptd/pkg/tools"
)

type convertRequest struct {
	Text string `json:"text" jsonschema:"required,description=the text to convert to audio"`
}

type convertResponse struct {
	Audio []byte `json:"audio"`
}

func ToolDefs() []tools.ToolDefinition {
	return []tools.ToolDefinition{
		tools.NewDef(
			"convert_text_to_audio",
			"Converts the provided text to an audio and returns the bytes",
			func(ctx context.Context, req convertRequest) (convertResponse, error) {
				return convertResponse{}, &tools.ToolError{
					Err: errors.New("text to audio conversion not implemented"),
				}
			},
		),
	}
}
