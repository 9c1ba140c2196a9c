package circuit_breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/circuit_breaker"
	"github.com/stretchr/testify/require"
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	errService := errors.New("service error")
	successfulService := func() error { return nil }
	failingService := func() error { return errService }

	cb := circuit_breaker.New(circuit_breaker.Config{
		Window:           4,
		Timeout:          20 * time.Millisecond,
		FailureRatio:     0.5,
		RecoveryRequests: 2,
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Call(successfulService))
	}
	require.Equal(t, circuit_breaker.Closed, cb.State())

	require.ErrorIs(t, cb.Call(failingService), errService)
	require.Equal(t, circuit_breaker.Closed, cb.State())
	require.ErrorIs(t, cb.Call(failingService), errService)
	require.Equal(t, circuit_breaker.Open, cb.State())

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, circuit_breaker.ErrOpenCB)
	require.False(t, called, "open breaker must not call the service")

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, cb.Call(successfulService))
	require.Equal(t, circuit_breaker.HalfOpen, cb.State())
	require.NoError(t, cb.Call(successfulService))
	require.Equal(t, circuit_breaker.Closed, cb.State())

	// a half-open failure opens again
	require.ErrorIs(t, cb.Call(failingService), errService)
	require.ErrorIs(t, cb.Call(failingService), errService)
	require.Equal(t, circuit_breaker.Open, cb.State())
	time.Sleep(30 * time.Millisecond)
	require.ErrorIs(t, cb.Call(failingService), errService)
	require.Equal(t, circuit_breaker.Open, cb.State())

	cb.Reset()
	require.Equal(t, circuit_breaker.Closed, cb.State())
}
