package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFiresOnAdvance(t *testing.T) {
	clock := NewManual(time.Unix(0, 0))
	fired := 0

	clock.AfterFunc(time.Minute, func() { fired++ })

	clock.Advance(59 * time.Second)
	assert.Zero(t, fired)

	clock.Advance(time.Second)
	assert.Equal(t, 1, fired)

	// Already fired, no repeat.
	clock.Advance(time.Hour)
	assert.Equal(t, 1, fired)
}

func TestManualStop(t *testing.T) {
	clock := NewManual(time.Unix(0, 0))
	fired := false

	tm := clock.AfterFunc(time.Minute, func() { fired = true })
	assert.True(t, tm.Stop())

	clock.Advance(time.Hour)
	assert.False(t, fired)
	assert.False(t, tm.Stop(), "second stop reports false")
}

func TestManualStopAfterFire(t *testing.T) {
	clock := NewManual(time.Unix(0, 0))

	tm := clock.AfterFunc(time.Second, func() {})
	clock.Advance(time.Second)

	assert.False(t, tm.Stop())
}

func TestManualDeadlineOrder(t *testing.T) {
	clock := NewManual(time.Unix(0, 0))
	var order []int

	clock.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	clock.AfterFunc(time.Second, func() { order = append(order, 1) })

	clock.Advance(5 * time.Second)
	assert.Equal(t, []int{1, 2}, order)
}

func TestManualNow(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := NewManual(start)

	clock.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), clock.Now())
}
