package chat

import (
	"context"
	"io"
)

// Sink is the append-only destination for output chunks: an HTTP chunked
// response, a websocket frame writer, or a plain io.Writer. Writes happen
// strictly in chunk arrival order; Close flushes and ends the stream.
type Sink interface {
	Write(ctx context.Context, chunk string) error
	Close() error
}

type writerSink struct {
	w io.Writer
}

// NewWriterSink adapts an io.Writer into a Sink. If the writer also
// implements io.Closer, Close is forwarded.
func NewWriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) Write(ctx context.Context, chunk string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(s.w, chunk)
	return err
}

func (s *writerSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
