package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPFlowCountsDownToReady(t *testing.T) {
	flow := NewOTPFlow(5, func(ctx context.Context) error { return nil }, nil, nil)

	state, remaining := flow.State()
	assert.Equal(t, StateCounting, state)
	assert.Equal(t, 5, remaining)

	for i := 0; i < 4; i++ {
		flow.Tick()
	}
	state, remaining = flow.State()
	assert.Equal(t, StateCounting, state)
	assert.Equal(t, 1, remaining)

	flow.Tick()
	state, remaining = flow.State()
	assert.Equal(t, StateReadyToResend, state)
	assert.Equal(t, 0, remaining)
}

func TestOTPFlowRejectsResendWhileCounting(t *testing.T) {
	calls := 0
	flow := NewOTPFlow(5, func(ctx context.Context) error {
		calls++
		return nil
	}, nil, nil)

	flow.Tick()
	flow.Tick() // Counting(3)

	err := flow.Resend(context.Background())
	require.ErrorIs(t, err, ErrResendUnavailable)
	assert.Zero(t, calls)

	state, remaining := flow.State()
	assert.Equal(t, StateCounting, state)
	assert.Equal(t, 3, remaining)
}

func TestOTPFlowResendResetsOptimistically(t *testing.T) {
	resendErr := errors.New("smtp unavailable")
	notify := &recordingNotifier{}
	flow := NewOTPFlow(5, func(ctx context.Context) error { return resendErr }, notify, nil)

	for i := 0; i < 5; i++ {
		flow.Tick()
	}

	err := flow.Resend(context.Background())
	require.ErrorIs(t, err, resendErr)

	// Cooldown resets even though the network call failed.
	state, remaining := flow.State()
	assert.Equal(t, StateCounting, state)
	assert.Equal(t, 5, remaining)
	assert.Len(t, notify.errors, 1)
}

func TestOTPFlowResendSuccess(t *testing.T) {
	notify := &recordingNotifier{}
	flow := NewOTPFlow(3, func(ctx context.Context) error { return nil }, notify, nil)

	for i := 0; i < 3; i++ {
		flow.Tick()
	}
	require.NoError(t, flow.Resend(context.Background()))

	state, remaining := flow.State()
	assert.Equal(t, StateCounting, state)
	assert.Equal(t, 3, remaining)
	assert.Len(t, notify.successes, 1)
	assert.False(t, flow.InFlight())
}

func TestOTPFlowTickIgnoredAtZero(t *testing.T) {
	flow := NewOTPFlow(1, func(ctx context.Context) error { return nil }, nil, nil)
	flow.Tick()
	flow.Tick()
	flow.Tick()

	state, remaining := flow.State()
	assert.Equal(t, StateReadyToResend, state)
	assert.Equal(t, 0, remaining)
}

func TestOTPFlowStopFreezesState(t *testing.T) {
	flow := NewOTPFlow(5, func(ctx context.Context) error { return nil }, nil, nil)
	flow.Tick()
	flow.Stop()

	flow.Tick()
	_, remaining := flow.State()
	assert.Equal(t, 4, remaining)

	err := flow.Resend(context.Background())
	assert.ErrorIs(t, err, ErrResendUnavailable)
}

func TestOTPFlowDefaultCooldown(t *testing.T) {
	flow := NewOTPFlow(0, func(ctx context.Context) error { return nil }, nil, nil)
	state, remaining := flow.State()
	assert.Equal(t, StateCounting, state)
	assert.Equal(t, DefaultOTPCooldown, remaining)
}

func TestOTPFlowRunStopsOnCancel(t *testing.T) {
	flow := NewOTPFlow(120, func(ctx context.Context) error { return nil }, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		flow.Run(ctx)
		close(done)
	}()

	cancel()
	<-done

	_, before := flow.State()
	flow.Tick()
	_, after := flow.State()
	assert.Equal(t, before, after)
}
