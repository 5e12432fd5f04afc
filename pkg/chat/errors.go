package chat

import "errors"

var (
	// ErrUnattributedChunk reports a content delta that arrived before the
	// engine ever attributed a role to the current run.
	ErrUnattributedChunk = errors.New("content chunk without an attributed role")

	// ErrSinkWrite reports a failed write or flush on the transport sink.
	ErrSinkWrite = errors.New("sink write failed")
)
