// Package retry runs an operation under an exponential backoff policy,
// modelled as an explicit state machine so callers and tests can observe
// every transition.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// State is a position in the retry state machine.
type State int

const (
	Attempting State = iota
	Backoff
	Succeeded
	FailedPermanently
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Backoff:
		return "backoff"
	case Succeeded:
		return "succeeded"
	case FailedPermanently:
		return "failed_permanently"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Transition is reported to an Observer each time the machine changes state.
type Transition struct {
	From    State
	To      State
	Attempt int
	Delay   time.Duration
	Err     error
}

// Policy configures Run.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// InitialDelay is the wait after the first failed attempt; the wait after
	// attempt k (0-based) is InitialDelay * 2^k.
	InitialDelay time.Duration

	// Retryable decides whether an error moves the machine to Backoff.
	// A nil Retryable retries nothing.
	Retryable func(error) bool

	// Sleep defaults to a context-aware timer.
	Sleep SleepFunc

	Observer func(Transition)
}

// Outcome is the terminal result of Run.
type Outcome struct {
	State    State
	Attempts int
	Delays   []time.Duration
	Err      error
}

// ErrInvalidPolicy is returned when MaxAttempts or InitialDelay are not positive.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Delay returns the backoff before retrying after attempt (0-based). It
// saturates at the largest Duration instead of overflowing.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 0; i < attempt; i++ {
		if d > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		d *= 2
	}
	return d
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d", ErrInvalidPolicy, p.MaxAttempts)
	}
	if p.InitialDelay <= 0 {
		return fmt.Errorf("%w: initial delay %s", ErrInvalidPolicy, p.InitialDelay)
	}
	return nil
}

// Run calls fn until it succeeds, returns a non-retryable error, the attempt
// budget is spent, or ctx is done. The returned Outcome is always terminal
// (Succeeded or FailedPermanently) and Err holds the last error.
func Run(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) Outcome {
	if err := p.Validate(); err != nil {
		return Outcome{State: FailedPermanently, Err: err}
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	out := Outcome{State: Attempting}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			out.Err = errors.Join(err, out.Err)
			p.move(&out, FailedPermanently, attempt, 0)
			return out
		}

		out.Attempts = attempt + 1
		err := fn(ctx, attempt)
		if err == nil {
			out.Err = nil
			p.move(&out, Succeeded, attempt, 0)
			return out
		}
		out.Err = err

		if p.Retryable == nil || !p.Retryable(err) || attempt+1 >= p.MaxAttempts {
			p.move(&out, FailedPermanently, attempt, 0)
			return out
		}

		delay := p.Delay(attempt)
		p.move(&out, Backoff, attempt, delay)
		out.Delays = append(out.Delays, delay)
		if err := sleep(ctx, delay); err != nil {
			out.Err = errors.Join(err, out.Err)
			p.move(&out, FailedPermanently, attempt, 0)
			return out
		}
		p.move(&out, Attempting, attempt+1, 0)
	}
}

func (p Policy) move(out *Outcome, to State, attempt int, delay time.Duration) {
	from := out.State
	out.State = to
	if p.Observer != nil {
		p.Observer(Transition{From: from, To: to, Attempt: attempt, Delay: delay, Err: out.Err})
	}
}

// Sleep waits for d, returning early with ctx.Err() if ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
