// Package openrouter is the HTTP client for an OpenAI-compatible
// chat-completion endpoint such as OpenRouter.
//
// Requests are built as typed values and serialized with encoding/json.
// Responses are decoded once into structs whose optional fields are
// pointers, so an absent field is distinguishable from an empty one.
package openrouter

import "encoding/json"

// ChatMessage is one entry of the request message list
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body of the completions endpoint
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// ChatResponse is the non-streaming response body
type ChatResponse struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

// Choice is one completion alternative.
// Chat models fill Message; legacy completion models fill Text.
type Choice struct {
	Message *ChoiceMessage `json:"message,omitempty"`
	Text    *string        `json:"text,omitempty"`
}

// ChoiceMessage is the generated assistant message
type ChoiceMessage struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content"`
}

// Text returns the generated text of the first choice: message.content
// when present, otherwise text. ok is false when neither is present.
func (r *ChatResponse) Text() (text string, ok bool) {
	if r == nil || len(r.Choices) == 0 {
		return "", false
	}
	choice := r.Choices[0]
	if choice.Message != nil && choice.Message.Content != nil {
		return *choice.Message.Content, true
	}
	if choice.Text != nil {
		return *choice.Text, true
	}
	return "", false
}

// Reply returns Text, or NoResponse when there is none
func (r *ChatResponse) Reply() string {
	if text, ok := r.Text(); ok {
		return text
	}
	return NoResponse
}

// StreamEvent is the JSON payload of one streamed data line
type StreamEvent struct {
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice carries the incremental delta of a streamed choice
type StreamChoice struct {
	Delta *StreamDelta `json:"delta,omitempty"`
	Text  *string      `json:"text,omitempty"`
}

// StreamDelta is the incremental assistant content
type StreamDelta struct {
	Content *string `json:"content"`
}

// DeltaText extracts the incremental text from a raw streamed payload.
// ok is false when payload is not a JSON event or carries no text, for
// example provider keep-alive comments.
func DeltaText(payload string) (text string, ok bool) {
	var ev StreamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || len(ev.Choices) == 0 {
		return "", false
	}
	choice := ev.Choices[0]
	if choice.Delta != nil && choice.Delta.Content != nil {
		return *choice.Delta.Content, true
	}
	if choice.Text != nil {
		return *choice.Text, true
	}
	return "", false
}
