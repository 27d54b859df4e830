package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func testConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             50 * time.Millisecond,
		HalfOpenMaxRequests: 3,
	}
}

func fail(cb *CircuitBreaker) error {
	return cb.Execute(func() error { return errBoom })
}

func succeed(cb *CircuitBreaker) error {
	return cb.Execute(func() error { return nil })
}

func TestClosedPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	require.NoError(t, succeed(cb))
	require.ErrorIs(t, fail(cb), errBoom)
	require.Equal(t, StateClosed, cb.GetState())
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, fail(cb), errBoom)
	}

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitBreakerOpen)
	require.False(t, called)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	require.ErrorIs(t, fail(cb), errBoom)
	require.ErrorIs(t, fail(cb), errBoom)
	require.NoError(t, succeed(cb))
	require.ErrorIs(t, fail(cb), errBoom)
	require.ErrorIs(t, fail(cb), errBoom)

	// Never three in a row, so still closed.
	require.NoError(t, succeed(cb))
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, fail(cb), errBoom)
	}
	require.ErrorIs(t, succeed(cb), ErrCircuitBreakerOpen)

	time.Sleep(60 * time.Millisecond)

	// Two successful probes close the breaker again.
	require.NoError(t, succeed(cb))
	require.NoError(t, succeed(cb))
	require.NoError(t, succeed(cb))
	require.Equal(t, StateClosed, cb.GetState())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, fail(cb), errBoom)
	}
	time.Sleep(60 * time.Millisecond)

	require.ErrorIs(t, fail(cb), errBoom)
	require.Equal(t, StateOpen, cb.GetState())
	require.ErrorIs(t, succeed(cb), ErrCircuitBreakerOpen)
}

func TestReset(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, fail(cb), errBoom)
	}
	require.ErrorIs(t, succeed(cb), ErrCircuitBreakerOpen)

	cb.Reset()
	require.Equal(t, StateClosed, cb.GetState())
	require.NoError(t, succeed(cb))
}
