package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Set(ctx, "chat-1", PurposeClaimIntent, "42", 10*time.Minute)
	require.NoError(t, err)

	val, ok, err := store.Get(ctx, "chat-1", PurposeClaimIntent)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", val)

	// Other purposes and chats are independent
	_, ok, err = store.Get(ctx, "chat-1", PurposeCurrentQuestion)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(ctx, "chat-2", PurposeClaimIntent)
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.Delete(ctx, "chat-1", PurposeClaimIntent)
	require.NoError(t, err)

	_, ok, err = store.Get(ctx, "chat-1", PurposeClaimIntent)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	err := store.Set(ctx, "chat-1", PurposeAnswering, "1", time.Minute)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "chat-1", PurposeAnswering)
	require.NoError(t, err)
	assert.True(t, ok)

	// Past the TTL the key reads as absent, not as an error
	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "chat-1", PurposeAnswering)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_DeleteMissingKey(t *testing.T) {
	store := NewMemoryStore()
	err := store.Delete(context.Background(), "chat-1", PurposeResumeChoice)
	assert.NoError(t, err)
}
