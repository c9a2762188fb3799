package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrLoad_MissInvokesLoader(t *testing.T) {
	c := New[string, int](time.Hour)
	calls := 0

	v, err := c.GetOrLoad("k", func() (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoad_HitDoesNotInvokeLoader(t *testing.T) {
	c := New[string, int](time.Hour)
	calls := 0
	loader := func() (int, error) {
		calls++
		return 42, nil
	}

	c.GetOrLoad("k", loader)
	c.GetOrLoad("k", loader)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoad_ExpiredEntryReloads(t *testing.T) {
	c := New[string, int](10 * time.Millisecond)
	calls := 0
	loader := func() (int, error) {
		calls++
		return calls, nil
	}

	c.GetOrLoad("k", loader)
	time.Sleep(20 * time.Millisecond)
	v, _ := c.GetOrLoad("k", loader)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, v)
}

func TestGetOrLoad_LoaderErrorPropagatesAndIsNotCached(t *testing.T) {
	c := New[string, int](time.Hour)
	boom := errors.New("boom")
	calls := 0

	_, err := c.GetOrLoad("k", func() (int, error) {
		calls++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = c.GetOrLoad("k", func() (int, error) {
		calls++
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "a failed load must not be cached")
}

func TestCleanup_RemovesExpiredEntriesOnly(t *testing.T) {
	c := New[string, int](10 * time.Millisecond)
	c.GetOrLoad("stale", func() (int, error) { return 1, nil })
	time.Sleep(20 * time.Millisecond)
	c.GetOrLoad("fresh", func() (int, error) { return 2, nil })

	removed := c.Cleanup()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Stats().TotalKeys)
}

func TestClear_DropsEverything(t *testing.T) {
	c := New[string, int](time.Hour)
	c.GetOrLoad("a", func() (int, error) { return 1, nil })
	c.GetOrLoad("b", func() (int, error) { return 2, nil })

	c.Clear()
	assert.Equal(t, 0, c.Stats().TotalKeys)
}
