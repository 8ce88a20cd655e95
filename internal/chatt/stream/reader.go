package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const readBufferSize = 4096

// Parse drives a Parser over r and pushes every chunk into out, in order,
// followed by one terminal chunk when the stream completes. out is closed
// when Parse returns.
//
// Sends block until the consumer receives, so a slow consumer slows down
// reading from r. A read error moves the parser to Failed and is returned
// without a terminal chunk; so is cancellation of ctx.
func Parse(ctx context.Context, r io.Reader, out chan<- Chunk) error {
	defer close(out)

	p := NewParser()
	buf := make([]byte, readBufferSize)

	emit := func(chunks []Chunk) error {
		for _, c := range chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				p.Fail()
				return ctx.Err()
			}
		}
		return nil
	}

	for p.State() == Accumulating {
		n, err := r.Read(buf)
		if n > 0 {
			if emitErr := emit(p.Feed(buf[:n])); emitErr != nil {
				return emitErr
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if emitErr := emit(p.Finish()); emitErr != nil {
				return emitErr
			}
			break
		}
		p.Fail()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("reading upstream stream: %w", err)
	}

	return emit([]Chunk{{Terminal: true}})
}
