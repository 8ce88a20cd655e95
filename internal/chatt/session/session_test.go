package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Joach27/chatt/internal/chatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SnapshotUnknownSession(t *testing.T) {
	store := NewStore()

	msgs := store.Snapshot("new-id")
	require.NotNil(t, msgs)
	assert.Empty(t, msgs)
	assert.Equal(t, 0, store.Len("new-id"))
	assert.Empty(t, store.Sessions())
}

func TestStore_AppendOrdering(t *testing.T) {
	store := NewStore()

	store.Append("s1", chatt.RoleUser, "hello")
	store.Append("s1", chatt.RoleAssistant, "hi")
	store.Append("s1", chatt.RoleAssistant, " there")
	store.Append("s2", chatt.RoleUser, "other")

	msgs := store.Snapshot("s1")
	require.Len(t, msgs, 3)
	assert.Equal(t, chatt.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hi", msgs[1].Content)
	assert.Equal(t, " there", msgs[2].Content)
	assert.False(t, msgs[0].Timestamp.IsZero())

	assert.Equal(t, []string{"s1", "s2"}, store.Sessions())
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := NewStore()
	store.Append("s1", chatt.RoleUser, "original")

	snap := store.Snapshot("s1")
	snap[0].Content = "mutated"
	snap = append(snap, chatt.Message{Role: chatt.RoleAssistant, Content: "injected"})
	_ = snap

	again := store.Snapshot("s1")
	require.Len(t, again, 1)
	assert.Equal(t, "original", again[0].Content)
}

func TestStore_Clear(t *testing.T) {
	store := NewStore()
	store.Append("s1", chatt.RoleUser, "hello")

	store.Clear("s1")
	assert.Empty(t, store.Snapshot("s1"))
	assert.Empty(t, store.Sessions())

	// Clearing an absent session is a no-op
	store.Clear("missing")

	// Session is recreated on the next append
	store.Append("s1", chatt.RoleUser, "again")
	msgs := store.Snapshot("s1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "again", msgs[0].Content)
}

func TestStore_ConcurrentAppend(t *testing.T) {
	store := NewStore()
	const n = 500

	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				store.Append("shared", chatt.RoleUser, fmt.Sprintf("%d-%d", worker, i))
			}
		}(w)
	}
	wg.Wait()

	msgs := store.Snapshot("shared")
	require.Len(t, msgs, 2*n)

	seen := make(map[string]bool, 2*n)
	next := map[int]int{0: 0, 1: 0}
	for _, m := range msgs {
		require.False(t, seen[m.Content], "duplicate message %s", m.Content)
		seen[m.Content] = true

		// Each writer's messages keep their relative order
		var worker, i int
		_, err := fmt.Sscanf(m.Content, "%d-%d", &worker, &i)
		require.NoError(t, err)
		assert.Equal(t, next[worker], i)
		next[worker]++
	}
}

func TestStore_ConcurrentSnapshotAndClear(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", worker%2)
			for i := 0; i < 200; i++ {
				switch i % 10 {
				case 0:
					store.Clear(id)
				case 1:
					_ = store.Snapshot(id)
				default:
					store.Append(id, chatt.RoleAssistant, "x")
				}
			}
		}(w)
	}
	wg.Wait()

	for _, id := range store.Sessions() {
		assert.Equal(t, len(store.Snapshot(id)), store.Len(id))
	}
}
