package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	sess := &Session{ID: "s1", Digits: 10, Length: 5, Threads: 5}
	require.NoError(t, m.Save(ctx, sess))

	got, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, sess, got)
}
