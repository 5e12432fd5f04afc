package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"promptd/pkg/chat/parts"
	"promptd/pkg/session"
	"promptd/pkg/tools"
)

var defaultToolTimeout = time.Minute

// Orchestrator drives one generation session: it feeds the engine with the
// conversation history and the capability registry, consumes the incremental
// output stream, resolves tool invocations one at a time, and forwards
// content chunks to the transport sink.
//
// An Orchestrator belongs to a single request task; it is not safe for
// concurrent use.
type Orchestrator struct {
	agent Agent
	reg   *tools.Registry
	conv  *Conversation

	toolTimeout time.Duration
	state       State
}

type Option func(*Orchestrator)

// WithToolTimeout bounds each capability invocation.
func WithToolTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.toolTimeout = d
	}
}

func New(agent Agent, reg *tools.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		agent:       agent,
		reg:         reg,
		conv:        NewConversation(),
		toolTimeout: defaultToolTimeout,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State reports the lifecycle state of the current or last reply.
func (o *Orchestrator) State() State {
	return o.state
}

// Conversation exposes the turn history owned by this session.
func (o *Orchestrator) Conversation() *Conversation {
	return o.conv
}

func (o *Orchestrator) fail(err error) error {
	o.state = StateFailed
	return err
}

// Reply appends the user message, streams the engine's answer into sink,
// and interleaves capability invocations until the engine stops asking for
// them. Chunks already flushed before a failure are not retracted; the
// caller sees a truncated stream.
func (o *Orchestrator) Reply(ctx context.Context, input string, sink Sink) error {
	logger := session.Logger(ctx, "chat")
	o.conv.AppendTurn(parts.RoleUser, input)
	o.state = StateGenerating

	msgs := []parts.Part{{Role: parts.RoleUser, Text: input}}
	for {
		var runRole parts.Role
		var nextMsgs []parts.Part
		logger.Debug("sending", "messages", msgs)
		for part, err := range o.agent.SendMessageStream(ctx, msgs) {
			if err != nil {
				return o.fail(err)
			}
			logger.Debug("received chunk", "part", part)
			if part.Role != "" {
				runRole = part.Role
			}
			if call := part.FunctionCall; call != nil {
				o.state = StateToolCallPending
				resp, err := o.invokeTool(ctx, call)
				if cerr := ctx.Err(); cerr != nil {
					// Client is gone; the finished result is discarded
					// rather than appended.
					return o.fail(cerr)
				}
				o.conv.AppendTurn(parts.RoleTool, toolTurnContent(call, resp, err))
				nextMsgs = append(nextMsgs, parts.Part{
					FunctionResponse: &parts.FunctionResponse{
						ID:       call.ID,
						Name:     call.Name,
						Response: resp,
						Error:    err,
					},
				})
				o.state = StateGenerating
				continue
			}
			if runRole == "" {
				return o.fail(fmt.Errorf("%w: %q", ErrUnattributedChunk, part.Text))
			}
			o.conv.AppendDelta(runRole, part.Text)
			if part.Text == "" {
				continue
			}
			if err := sink.Write(ctx, part.Text); err != nil {
				return o.fail(fmt.Errorf("%w: %w", ErrSinkWrite, err))
			}
		}
		if len(nextMsgs) == 0 {
			break
		}
		msgs = nextMsgs
	}

	if err := sink.Close(); err != nil {
		return o.fail(fmt.Errorf("%w: %w", ErrSinkWrite, err))
	}
	o.state = StateCompleted
	return nil
}

// invokeTool runs one capability. Failures are not retried here: the error
// travels back to the engine as part of the tool turn, and only one tool
// turn is produced per invocation no matter how it fails.
func (o *Orchestrator) invokeTool(ctx context.Context, call *parts.FunctionCall) (any, error) {
	logger := session.Logger(ctx, "chat")
	logger.Info("invoking capability", "name", call.Name)
	toolCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()
	resp, err := o.reg.Run(toolCtx, call.Name, call.Args)
	if err != nil {
		logger.Warn("capability failed", "name", call.Name, "error", err)
		var toolErr *tools.ToolError
		if errors.As(err, &toolErr) {
			err = toolErr.Unwrap()
		}
		return nil, err
	}
	return resp, nil
}

// toolTurnContent serializes a capability result (or its failure) into the
// content of the tool turn.
func toolTurnContent(call *parts.FunctionCall, resp any, err error) string {
	var payload any
	if err != nil {
		payload = map[string]any{"error": err.Error()}
	} else {
		payload = resp
	}
	encoded, merr := json.Marshal(payload)
	if merr != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(encoded)
}
