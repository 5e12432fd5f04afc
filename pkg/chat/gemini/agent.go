// Package gemini implements the generation engine contract on top of the
// Gemini chat streaming API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"

	"promptd/pkg/chat/parts"
	"promptd/pkg/tools"
)

func toSchema(s *jsonschema.Schema) (*genai.Schema, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	decoded := &genai.Schema{}
	if err := json.Unmarshal(encoded, decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

type Agent struct {
	chat *genai.Chat
}

func (g *Agent) SendMessageStream(ctx context.Context, ps []parts.Part) iter.Seq2[*parts.Part, error] {
	return func(yield func(*parts.Part, error) bool) {
		inputParts := make([]*genai.Part, 0, len(ps))
		for _, part := range ps {
			p := &genai.Part{}
			if part.Text != "" {
				p.Text = part.Text
			}
			if fr := part.FunctionResponse; fr != nil {
				resp := map[string]any{}
				if fr.Response != nil {
					resp["response"] = fr.Response
				}
				if fr.Error != nil {
					resp["error"] = fr.Error.Error()
				}
				p.FunctionResponse = &genai.FunctionResponse{
					ID:       fr.ID,
					Name:     fr.Name,
					Response: resp,
				}
			}
			inputParts = append(inputParts, p)
		}
		var roleSent bool
		for result, err := range g.chat.SendStream(ctx, inputParts...) {
			if err != nil {
				yield(nil, err)
				return
			}
			if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
				continue
			}
			for _, part := range result.Candidates[0].Content.Parts {
				p := &parts.Part{}
				if part.FunctionCall != nil {
					p.FunctionCall = &parts.FunctionCall{
						ID:   part.FunctionCall.ID,
						Name: part.FunctionCall.Name,
						Args: part.FunctionCall.Args,
					}
				} else if part.Text != "" {
					if part.Thought {
						continue
					}
					p.Text = part.Text
					if !roleSent {
						p.Role = parts.RoleAssistant
						roleSent = true
					}
				} else {
					continue
				}
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}

func New(
	ctx context.Context,
	modelName string,
	clientConfig *genai.ClientConfig,
	systemPrompt string,
	toolDefs []tools.ToolDefinition,
) (*Agent, error) {
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}

	var funcs []*genai.FunctionDeclaration
	for _, d := range toolDefs {
		params, err := toSchema(d.RequestSchema())
		if err != nil {
			return nil, fmt.Errorf("failed to encode request schema for %s: %w", d.Name(), err)
		}
		funcs = append(funcs, &genai.FunctionDeclaration{
			Name:        d.Name(),
			Description: d.Description(),
			Behavior:    genai.BehaviorBlocking,
			Parameters:  params,
		})
	}

	chat, err := client.Chats.Create(ctx, modelName, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Tools:             []*genai.Tool{{FunctionDeclarations: funcs}},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &Agent{chat: chat}, nil
}
