// Package openai implements the generation engine contract on top of the
// OpenAI responses API with streaming.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"promptd/pkg/chat/parts"
	"promptd/pkg/session"
)

type Agent struct {
	client responses.ResponseService

	model        shared.ResponsesModel
	systemPrompt string
	tools        []responses.ToolUnionParam

	// The responses API carries the conversation server-side; resuming with
	// the previous response ID replays the whole history.
	previousResponseID param.Opt[string]
}

func textToInput(text string) responses.ResponseInputItemUnionParam {
	return responses.ResponseInputItemParamOfInputMessage(
		responses.ResponseInputMessageContentListParam{
			responses.ResponseInputContentParamOfInputText(text),
		},
		"user",
	)
}

func funcRespToInput(fr *parts.FunctionResponse) (responses.ResponseInputItemUnionParam, error) {
	var output map[string]any
	if fr.Error != nil {
		output = map[string]any{
			"success":       false,
			"error_message": fr.Error.Error(),
		}
	} else {
		output = map[string]any{"success": true}
		if fr.Response != nil {
			output["response"] = fr.Response
		}
	}
	outputStr, err := json.Marshal(output)
	if err != nil {
		return responses.ResponseInputItemUnionParam{}, err
	}
	return responses.ResponseInputItemParamOfFunctionCallOutput(
		fr.ID,
		string(outputStr),
	), nil
}

func partToInput(p parts.Part) (responses.ResponseInputItemUnionParam, error) {
	if p.Text != "" {
		return textToInput(p.Text), nil
	}
	if fr := p.FunctionResponse; fr != nil {
		return funcRespToInput(fr)
	}
	return responses.ResponseInputItemUnionParam{}, fmt.Errorf("unsupported part %+v", p)
}

func (a *Agent) SendMessageStream(ctx context.Context, ps []parts.Part) iter.Seq2[*parts.Part, error] {
	return func(yield func(*parts.Part, error) bool) {
		logger := session.Logger(ctx, "openai")

		var input responses.ResponseNewParamsInputUnion
		for _, p := range ps {
			msg, err := partToInput(p)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			input.OfInputItemList = append(input.OfInputItemList, msg)
		}

		st := a.client.NewStreaming(ctx, responses.ResponseNewParams{
			Instructions:       param.NewOpt(a.systemPrompt),
			PreviousResponseID: a.previousResponseID,
			Input:              input,
			Model:              a.model,
			Tools:              a.tools,
		})
		defer st.Close()

		p := &outputProcessor{logger: logger}
		p.processStream(st, yield)
		if err := st.Err(); err != nil {
			yield(nil, err)
			return
		}
		if p.responseID != "" {
			a.previousResponseID = param.NewOpt(p.responseID)
		}
	}
}
