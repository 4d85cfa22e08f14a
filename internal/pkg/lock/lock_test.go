package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLockExcludesSecondHolder(t *testing.T) {
	l := NewKeyed[string]()

	require.True(t, l.TryLock("a"))
	assert.False(t, l.TryLock("a"))
	assert.True(t, l.TryLock("b"), "other keys are independent")

	l.Unlock("a")
	l.Unlock("b")
	assert.True(t, l.TryLock("a"))
	l.Unlock("a")
}

func TestEntriesAreReclaimed(t *testing.T) {
	l := NewKeyed[int]()

	for i := 0; i < 100; i++ {
		require.True(t, l.TryLock(i))
		l.Unlock(i)
	}
	assert.Zero(t, l.Len(), "released keys must not accumulate")
}

func TestLockSerializesCounter(t *testing.T) {
	l := NewKeyed[string]()
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock("counter")
			counter++
			l.Unlock("counter")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, l.Len())
}

func TestWithLock(t *testing.T) {
	l := NewKeyed[string]()

	err := l.WithLock("k", func() error {
		assert.False(t, l.TryLock("k"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, l.TryLock("k"))
	l.Unlock("k")
}

func TestUnlockUnheldPanics(t *testing.T) {
	l := NewKeyed[string]()
	assert.Panics(t, func() { l.Unlock("nope") })
}
