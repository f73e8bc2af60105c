package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := New(2, time.Hour)

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return errBoom })
		assert.Equal(t, errBoom, err)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.Equal(t, ErrOpen, err)
	assert.False(t, called)
}

func TestBreakerStaysClosedUnderThreshold(t *testing.T) {
	cb := New(5, time.Hour)

	for i := 0; i < 5; i++ {
		cb.Execute(func() error { return errBoom })
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	cb := NewWithWindow(1, 10*time.Millisecond, time.Hour)

	cb.Execute(func() error { return errBoom })
	cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// First probe fails: straight back to open.
	err := cb.Execute(func() error { return errBoom })
	assert.Equal(t, errBoom, err)
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// Successful probe closes the breaker.
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}
