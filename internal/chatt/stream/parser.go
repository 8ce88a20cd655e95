// Package stream decodes the upstream provider's line-framed streaming
// body into discrete text chunks.
//
// The body is a sequence of newline-separated lines. Each line may carry
// the framing marker "data:" any number of times (proxies sometimes wrap
// an already wrapped line) and the stream ends with a line equal to
// "[DONE]". Input buffers do not align with line boundaries.
package stream

import (
	"bytes"
	"strings"
)

const (
	// FramePrefix is the marker tagging data lines
	FramePrefix = "data:"
	// Sentinel is the line that terminates the stream
	Sentinel = "[DONE]"
)

// State is the parser state
type State int

const (
	Accumulating State = iota
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Chunk is a fragment of assistant-generated text.
// Terminal chunks carry no text and mark the end of a successful stream.
type Chunk struct {
	Text     string
	Terminal bool
}

// Parser is the line state machine. It is not safe for concurrent use;
// one Parser belongs to one upstream stream.
type Parser struct {
	carry    []byte
	state    State
	sentinel bool
}

// NewParser creates a Parser in the Accumulating state
func NewParser() *Parser {
	return &Parser{state: Accumulating}
}

// State returns the current state
func (p *Parser) State() State {
	return p.state
}

// SentinelSeen reports whether the stream ended on the sentinel line
// rather than on end of input.
func (p *Parser) SentinelSeen() bool {
	return p.sentinel
}

// Feed consumes one input buffer and returns the chunks of every line it
// completed. The unterminated remainder is kept for the next call.
// Once the parser has left Accumulating, Feed returns nil.
func (p *Parser) Feed(buf []byte) []Chunk {
	if p.state != Accumulating {
		return nil
	}
	p.carry = append(p.carry, buf...)

	var chunks []Chunk
	for p.state == Accumulating {
		i := bytes.IndexByte(p.carry, '\n')
		if i < 0 {
			break
		}
		line := string(p.carry[:i])
		p.carry = p.carry[i+1:]
		if c, ok := p.line(line); ok {
			chunks = append(chunks, c)
		}
	}

	if p.state != Accumulating {
		p.carry = nil
	} else if len(p.carry) == 0 {
		// Drop the consumed backing array
		p.carry = nil
	}
	return chunks
}

// Finish handles end of input. A trailing line without a terminator is
// still processed, then the parser moves to Done.
func (p *Parser) Finish() []Chunk {
	if p.state != Accumulating {
		return nil
	}
	var chunks []Chunk
	if len(p.carry) > 0 {
		if c, ok := p.line(string(p.carry)); ok {
			chunks = append(chunks, c)
		}
	}
	p.carry = nil
	p.state = Done
	return chunks
}

// Fail moves the parser to Failed and discards any partial line
func (p *Parser) Fail() {
	if p.state != Accumulating {
		return
	}
	p.carry = nil
	p.state = Failed
}

// line resolves one complete line. It reports false when the line yields
// no chunk: blank after unframing, or the sentinel.
func (p *Parser) line(raw string) (Chunk, bool) {
	text := Unframe(raw)
	if text == "" {
		return Chunk{}, false
	}
	if text == Sentinel {
		p.sentinel = true
		p.state = Done
		return Chunk{}, false
	}
	return Chunk{Text: text}, true
}

// Unframe strips every leading framing marker from line and trims the
// surrounding whitespace, including a trailing carriage return.
func Unframe(line string) string {
	s := strings.TrimLeft(line, " \t\r")
	for strings.HasPrefix(s, FramePrefix) {
		s = strings.TrimLeft(s[len(FramePrefix):], " \t\r")
	}
	return strings.TrimSpace(s)
}
