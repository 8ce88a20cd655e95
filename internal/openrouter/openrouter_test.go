package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", APIKey: "sk-test", Logger: zerolog.Nop()})
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"message content", `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`, "hello", true},
		{"fallback text", `{"choices":[{"text":"hi"}]}`, "hi", true},
		{"content wins over text", `{"choices":[{"message":{"content":"a"},"text":"b"}]}`, "a", true},
		{"null content falls back", `{"choices":[{"message":{"content":null},"text":"b"}]}`, "b", true},
		{"empty content is present", `{"choices":[{"message":{"content":""}}]}`, "", true},
		{"missing content", `{"choices":[{}]}`, "", false},
		{"no choices", `{"choices":[]}`, "", false},
		{"empty object", `{}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ChatResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))

			got, ok := resp.Text()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)

			if tt.wantOK {
				assert.Equal(t, tt.want, resp.Reply())
			} else {
				assert.Equal(t, NoResponse, resp.Reply())
			}
		})
	}
}

func TestNilResponseReply(t *testing.T) {
	var resp *ChatResponse
	assert.Equal(t, NoResponse, resp.Reply())
}

func TestDeltaText(t *testing.T) {
	text, ok := DeltaText(`{"id":"gen-1","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`)
	assert.True(t, ok)
	assert.Equal(t, "Hel", text)

	_, ok = DeltaText(": OPENROUTER PROCESSING")
	assert.False(t, ok)

	_, ok = DeltaText(`{"choices":[{"delta":{}}]}`)
	assert.False(t, ok)
}

func TestComplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body := decodeBody(t, r)
		assert.Equal(t, "openai/gpt-3.5-turbo", body["model"])
		assert.Equal(t, false, body["stream"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"text":"hi"}]}`))
	})

	resp, err := client.Complete(context.Background(), ChatRequest{
		Model:    "openai/gpt-3.5-turbo",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
		Stream:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Reply())
}

func TestCompleteEncodesSpecialCharacters(t *testing.T) {
	tricky := "quote \" backslash \\ newline \n tab \t control \x01 unicode é"

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, tricky, req.Messages[0].Content)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	resp, err := client.Complete(context.Background(), ChatRequest{
		Model:    "m",
		Messages: []ChatMessage{{Role: "user", Content: tricky}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Reply())
}

func TestCompleteStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	})

	_, err := client.Complete(context.Background(), ChatRequest{Model: "m"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "invalid key")
}

func TestCompleteMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.Complete(context.Background(), ChatRequest{Model: "m"})
	assert.Error(t, err)
}

func TestStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body := decodeBody(t, r)
		assert.Equal(t, true, body["stream"])
		messages, ok := body["messages"].([]interface{})
		require.True(t, ok)
		assert.Len(t, messages, 2)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: hello\n\n[DONE]\n"))
	})

	body, err := client.Stream(context.Background(), ChatRequest{
		Model: "m",
		Messages: []ChatMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: hello\n\n[DONE]\n", string(raw))
}

func TestStreamConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: url, APIKey: "k", Logger: zerolog.Nop()})
	_, err := client.Stream(context.Background(), ChatRequest{Model: "m"})
	assert.Error(t, err)
}

func TestStreamStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Stream(context.Background(), ChatRequest{Model: "m"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "API error: status 502", statusErr.Error())
}
