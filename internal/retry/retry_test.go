package retry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRateLimited = errors.New("429 rate limited")

type fakeClock struct {
	slept []time.Duration
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	return nil
}

func alwaysRetry(error) bool { return true }

func TestRunSucceedsFirstAttempt(t *testing.T) {
	clock := &fakeClock{}
	out := Run(context.Background(), Policy{MaxAttempts: 5, InitialDelay: time.Second, Retryable: alwaysRetry, Sleep: clock.Sleep},
		func(context.Context, int) error { return nil })

	assert.Equal(t, Succeeded, out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.NoError(t, out.Err)
	assert.Empty(t, clock.slept)
}

func TestRunAlwaysRateLimitedExhaustsAttempts(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	out := Run(context.Background(), Policy{MaxAttempts: 5, InitialDelay: 5 * time.Second, Retryable: alwaysRetry, Sleep: clock.Sleep},
		func(_ context.Context, attempt int) error {
			calls++
			return errRateLimited
		})

	assert.Equal(t, FailedPermanently, out.State)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, out.Attempts)
	assert.ErrorIs(t, out.Err, errRateLimited)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second}, clock.slept)
	assert.Equal(t, clock.slept, out.Delays)
}

func TestRunPreservesLastError(t *testing.T) {
	clock := &fakeClock{}
	out := Run(context.Background(), Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Retryable: alwaysRetry, Sleep: clock.Sleep},
		func(_ context.Context, attempt int) error {
			return errors.New([]string{"first", "second", "third"}[attempt])
		})

	require.Error(t, out.Err)
	assert.Equal(t, "third", out.Err.Error())
}

func TestRunNonRetryableStopsImmediately(t *testing.T) {
	clock := &fakeClock{}
	bad := errors.New("not json")
	calls := 0
	out := Run(context.Background(), Policy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Retryable:    func(err error) bool { return !errors.Is(err, bad) },
		Sleep:        clock.Sleep,
	}, func(context.Context, int) error {
		calls++
		return bad
	})

	assert.Equal(t, FailedPermanently, out.State)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.slept)
	assert.ErrorIs(t, out.Err, bad)
}

func TestRunRecoversAfterBackoff(t *testing.T) {
	clock := &fakeClock{}
	var transitions []Transition
	out := Run(context.Background(), Policy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Retryable:    alwaysRetry,
		Sleep:        clock.Sleep,
		Observer:     func(tr Transition) { transitions = append(transitions, tr) },
	}, func(_ context.Context, attempt int) error {
		if attempt < 2 {
			return errRateLimited
		}
		return nil
	})

	assert.Equal(t, Succeeded, out.State)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clock.slept)

	var states []State
	for _, tr := range transitions {
		states = append(states, tr.To)
	}
	assert.Equal(t, []State{Backoff, Attempting, Backoff, Attempting, Succeeded}, states)
}

func TestRunHonorsCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	out := Run(ctx, Policy{
		MaxAttempts:  5,
		InitialDelay: time.Hour,
		Retryable:    alwaysRetry,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return Sleep(ctx, d)
		},
	}, func(context.Context, int) error {
		calls++
		return errRateLimited
	})

	assert.Equal(t, FailedPermanently, out.State)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.ErrorIs(t, out.Err, errRateLimited)
}

func TestRunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := Run(ctx, Policy{MaxAttempts: 3, InitialDelay: time.Second, Retryable: alwaysRetry},
		func(context.Context, int) error { t.Fatal("fn must not run"); return nil })

	assert.Equal(t, FailedPermanently, out.State)
	assert.Equal(t, 0, out.Attempts)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestPolicyValidate(t *testing.T) {
	assert.ErrorIs(t, Policy{MaxAttempts: 0, InitialDelay: time.Second}.Validate(), ErrInvalidPolicy)
	assert.ErrorIs(t, Policy{MaxAttempts: 1, InitialDelay: 0}.Validate(), ErrInvalidPolicy)
	assert.NoError(t, Policy{MaxAttempts: 1, InitialDelay: time.Millisecond}.Validate())

	out := Run(context.Background(), Policy{}, func(context.Context, int) error { return nil })
	assert.Equal(t, FailedPermanently, out.State)
	assert.ErrorIs(t, out.Err, ErrInvalidPolicy)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "backoff", Backoff.String())
	assert.Equal(t, "failed_permanently", FailedPermanently.String())
}

func TestDelaySaturatesOnLongSchedules(t *testing.T) {
	p := Policy{MaxAttempts: 40, InitialDelay: 5 * time.Second}
	assert.Equal(t, 5*time.Second, p.Delay(0))
	assert.Equal(t, 40*time.Second, p.Delay(3))

	prev := time.Duration(0)
	for attempt := 0; attempt < 64; attempt++ {
		d := p.Delay(attempt)
		assert.Positive(t, d, "attempt %d", attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
	assert.Equal(t, time.Duration(math.MaxInt64), p.Delay(31))
}
