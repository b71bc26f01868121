package httpx_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwall/promptwall/pkg/infra/httpx"
)

func TestCircuitBreaker_PassesThroughSuccess(t *testing.T) {
	cb := httpx.NewCircuitBreaker("ok", time.Second, 3)

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestCircuitBreaker_WrapsFailure(t *testing.T) {
	cb := httpx.NewCircuitBreaker("fail", time.Second, 3)
	boom := errors.New("boom")

	err := cb.Execute(func() error { return boom })

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := httpx.NewCircuitBreaker("trips", time.Minute, 2)
	boom := errors.New("boom")

	calls := 0
	fail := func() error {
		calls++
		return boom
	}

	require.Error(t, cb.Execute(fail))
	require.Error(t, cb.Execute(fail))

	// Third attempt is rejected without running the function.
	err := cb.Execute(fail)
	require.Error(t, err)
	assert.NotErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	cb := httpx.NewCircuitBreaker("recovers", 20*time.Millisecond, 1)

	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	require.Error(t, cb.Execute(func() error { return nil }))

	time.Sleep(40 * time.Millisecond)

	assert.NoError(t, cb.Execute(func() error { return nil }))
}
