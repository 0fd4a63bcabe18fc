package api

import (
	"fmt"
	"io"

	"github.com/labstack/echo/v5"
)

// SSEStreamWriter emits a poem as server-sent events: one poem.chunk per
// displayed character, then the finished poem (or an error), then [DONE].
type SSEStreamWriter struct {
	w       io.Writer
	flusher func()
	id      string
	index   int
	err     error
}

func NewSSEStreamWriter(c *echo.Context, id string) (*SSEStreamWriter, error) {
	res := c.Response()
	flusher, ok := res.(interface{ Flush() })
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	return &SSEStreamWriter{w: res, flusher: flusher.Flush, id: id}, nil
}

// EmitChar sends one character. After the first write error later calls are
// dropped; Err reports it.
func (s *SSEStreamWriter) EmitChar(delta string) {
	if s.err != nil {
		return
	}
	s.err = s.send(PoemChunk{
		ID:     s.id,
		Object: "poem.chunk",
		Index:  s.index,
		Delta:  delta,
	})
	s.index++
}

func (s *SSEStreamWriter) Complete(p *Poem) error {
	if err := s.send(p); err != nil {
		return err
	}
	return s.done()
}

func (s *SSEStreamWriter) Failed(err error) error {
	if sendErr := s.send(errorBody(err)); sendErr != nil {
		return sendErr
	}
	return s.done()
}

func (s *SSEStreamWriter) Err() error { return s.err }

func (s *SSEStreamWriter) send(v any) error {
	if err := sendSSEChunk(s.w, v); err != nil {
		return err
	}
	s.flusher()
	return nil
}

func (s *SSEStreamWriter) done() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher()
	return nil
}
