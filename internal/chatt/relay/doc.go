// Package relay ties session history, the upstream client and the client
// transport together.
//
// Invariants:
//   - The user turn is appended before the upstream request is built, so the
//     outbound message list always ends with it.
//   - Every streamed chunk is appended as its own assistant Message, then
//     forwarded as a "chat" event, in upstream order.
//   - A successful stream ends with one "done" event and Close(nil); a failed
//     one ends with Close(err) and no "done" event.
//   - Cancelling the caller's context, or a failing Send, aborts the upstream
//     request.
//
// Two relays against the same session identifier are not coordinated; their
// turns may interleave in the history.
//
// Usage:
//
//	r, _ := relay.New(relay.Config{History: store, Upstream: client, DefaultModel: "openai/gpt-3.5-turbo"})
//	err := r.Stream(ctx, chatt.Request{SessionID: "default", Message: "hello"}, emitter)
package relay
