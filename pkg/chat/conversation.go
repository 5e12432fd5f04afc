package chat

import (
	"promptd/pkg/chat/parts"
)

// Turn is one attributed unit of conversation content.
type Turn struct {
	Role    parts.Role
	Content string
}

// Conversation is the ordered turn history of a single request. It is
// append-only for the request lifetime; insertion order is the ordering
// guarantee for replay into the generation engine.
type Conversation struct {
	turns []Turn

	// openRun marks the last turn as a still-open run of content deltas.
	// A turn appended whole (user input, tool results) closes the run, so
	// two consecutive tool turns never merge.
	openRun bool
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// AppendTurn appends a complete turn and closes the current run.
func (c *Conversation) AppendTurn(role parts.Role, content string) {
	c.turns = append(c.turns, Turn{Role: role, Content: content})
	c.openRun = false
}

// AppendDelta appends a content delta, merging it into the immediately
// preceding turn when that turn is an open run of the same role.
func (c *Conversation) AppendDelta(role parts.Role, delta string) {
	if c.openRun && len(c.turns) > 0 && c.turns[len(c.turns)-1].Role == role {
		c.turns[len(c.turns)-1].Content += delta
		return
	}
	c.turns = append(c.turns, Turn{Role: role, Content: delta})
	c.openRun = true
}

func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of the history in insertion order.
func (c *Conversation) Turns() []Turn {
	result := make([]Turn, len(c.turns))
	copy(result, c.turns)
	return result
}
