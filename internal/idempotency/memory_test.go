package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "k1", Record{Status: 200, Body: []byte(`{"ok":true}`)}, time.Minute))

	record, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 200, record.Status)
	assert.JSONEq(t, `{"ok":true}`, string(record.Body))
}

func TestInMemoryFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	require.NoError(t, store.Put(ctx, "k1", Record{Status: 200}, time.Minute))
	require.NoError(t, store.Put(ctx, "k1", Record{Status: 500}, time.Minute))

	record, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 200, record.Status)
}

func TestInMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	require.NoError(t, store.Put(ctx, "k1", Record{Status: 200}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
}
