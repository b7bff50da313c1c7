package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(threshold int, cooldown time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(threshold, cooldown)
	cb.now = clock.now
	return cb, clock
}

func TestBreaker_InitialState(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	assert.False(t, cb.IsOpen())
	assert.True(t, cb.Allow())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.False(t, cb.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
}

func TestBreaker_HalfOpensAfterCooldown(t *testing.T) {
	cb, clock := newTestBreaker(2, time.Minute)
	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.Allow())

	clock.t = clock.t.Add(61 * time.Second)
	assert.True(t, cb.Allow(), "probe allowed after cooldown")

	// a failed probe reopens immediately
	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.False(t, cb.Allow())

	clock.t = clock.t.Add(61 * time.Second)
	assert.True(t, cb.Allow())
	cb.RecordSuccess()
	assert.False(t, cb.IsOpen())
}

func TestBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(0, 0)
	assert.Equal(t, 5, cb.threshold)
	assert.Equal(t, time.Minute, cb.cooldown)
}
