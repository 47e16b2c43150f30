package fogstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetMissingScene(t *testing.T) {
	store := NewMemory()

	blob, err := store.Get(context.Background(), "absent")

	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestMemoryPutThenGetReturnsCopy(t *testing.T) {
	store := NewMemory()
	require.NoError(t, store.Put(context.Background(), "scene-1", &Blob{Explored: "abc", Timestamp: 42}))

	blob, err := store.Get(context.Background(), "scene-1")
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Equal(t, "abc", blob.Explored)
	assert.Equal(t, int64(42), blob.Timestamp)

	// Mutating the returned blob does not touch the stored one.
	blob.Explored = "mutated"
	again, err := store.Get(context.Background(), "scene-1")
	require.NoError(t, err)
	assert.Equal(t, "abc", again.Explored)
}

func TestMemoryFailPuts(t *testing.T) {
	store := NewMemory()
	store.FailPuts = true

	err := store.Put(context.Background(), "scene-1", &Blob{Explored: "abc"})

	require.ErrorIs(t, err, ErrStoreFailure)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryFireResetNotifiesAndDeletes(t *testing.T) {
	store := NewMemory()
	require.NoError(t, store.Put(context.Background(), "scene-1", &Blob{Explored: "abc"}))
	var calls int
	store.OnReset("scene-1", func() { calls++ })
	store.OnReset("scene-1", func() { calls++ })
	store.OnReset("other", func() { t.Fatal("handler for a different scene fired") })

	store.FireReset("scene-1")

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, store.Len())
}
