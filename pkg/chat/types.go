// Package chat implements the streaming orchestration engine: the
// conversation state machine that drives an incremental generation call,
// interleaves capability invocations, and forwards output chunks to a sink.
package chat

import (
	"context"
	"iter"

	"promptd/pkg/chat/parts"
	"promptd/pkg/tools"
)

// Agent is the streaming contract of the text-generation engine. The
// returned sequence is lazy, finite and not restartable.
type Agent interface {
	SendMessageStream(ctx context.Context, messages []parts.Part) iter.Seq2[*parts.Part, error]
}

// AgentFactory builds an engine bound to a system prompt and a set of
// capability descriptors. A factory corresponds to one configured model.
type AgentFactory interface {
	NewAgent(
		ctx context.Context,
		systemPrompt string,
		toolDefs []tools.ToolDefinition,
	) (Agent, error)
}

// State tracks where a reply is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateToolCallPending
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateToolCallPending:
		return "tool-call-pending"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
