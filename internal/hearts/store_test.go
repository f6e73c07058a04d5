// internal/hearts/store_test.go
package hearts

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchStoreLifecycle(t *testing.T) {
	store := NewMatchStore()
	m := NewMatch(100, SeededDeckSource{Seed: 1})
	store.AddMatch(m)

	got, ok := store.GetMatch(m.ID)
	require.True(t, ok)
	assert.Same(t, m, got)

	_, ok = store.GetMatch(uuid.New())
	assert.False(t, ok)

	store.DeleteMatch(m.ID)
	_, ok = store.GetMatch(m.ID)
	assert.False(t, ok)
}

func TestSweepDropsTerminalMatches(t *testing.T) {
	store := NewMatchStore()
	live := NewMatch(100, SeededDeckSource{Seed: 1})
	dead := NewMatch(100, SeededDeckSource{Seed: 2})
	store.AddMatch(live)
	store.AddMatch(dead)

	dead.Abort()
	assert.Equal(t, 1, store.Sweep())

	_, ok := store.GetMatch(live.ID)
	assert.True(t, ok)
	_, ok = store.GetMatch(dead.ID)
	assert.False(t, ok)
}
