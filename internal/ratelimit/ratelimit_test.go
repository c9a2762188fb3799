package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/klvinai/sentinelsuite/internal/model"
)

func TestShouldSend_FirstCallAlwaysAllowed(t *testing.T) {
	l := New(300*time.Second, 1800*time.Second, 3600*time.Second, nil)
	assert.True(t, l.ShouldSend("d", "s", model.Red))
}

func TestShouldSend_DeniesWithinWindow(t *testing.T) {
	l := New(50*time.Millisecond, time.Hour, time.Hour, nil)
	assert.True(t, l.ShouldSend("d", "s", model.Red))
	assert.False(t, l.ShouldSend("d", "s", model.Red))
}

func TestShouldSend_AllowsAfterWindowElapses(t *testing.T) {
	l := New(10*time.Millisecond, time.Hour, time.Hour, nil)
	assert.True(t, l.ShouldSend("d", "s", model.Red))
	time.Sleep(15 * time.Millisecond)
	assert.True(t, l.ShouldSend("d", "s", model.Red))
}

func TestShouldSend_DenyDoesNotTouchTimestamp(t *testing.T) {
	l := New(100*time.Millisecond, time.Hour, time.Hour, nil)
	assert.True(t, l.ShouldSend("d", "s", model.Red))
	time.Sleep(60 * time.Millisecond)
	assert.False(t, l.ShouldSend("d", "s", model.Red))
	// 120ms after the first allow, but only 60ms after the deny: allowed only
	// because the window is still measured from the first allow.
	time.Sleep(60 * time.Millisecond)
	assert.True(t, l.ShouldSend("d", "s", model.Red))
}

func TestShouldSend_KeysAreIndependentPerSeverity(t *testing.T) {
	l := New(time.Hour, time.Hour, time.Hour, nil)
	assert.True(t, l.ShouldSend("d", "s", model.Red))
	assert.True(t, l.ShouldSend("d", "s", model.Orange))
	assert.True(t, l.ShouldSend("d", "s", model.Yellow))
}

func TestSweep_EvictsEntriesOlderThanDoubleTimeout(t *testing.T) {
	l := New(10*time.Millisecond, time.Hour, time.Hour, nil)
	l.ShouldSend("d", "s", model.Red)
	time.Sleep(25 * time.Millisecond)

	evicted := l.Sweep()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, l.TrackedKeys())
}
