package agentrt

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryingRuntime decorates a Runtime with the Retry Policy from spec.md
// §7: Transient and RateLimited dispatch errors are retried under
// DefaultBackoff; a Malformed response (S7) is retried up to
// MaxMalformedRepairs times immediately with a repair instruction appended
// to the prompt instead of backing off, after which it is treated as a
// SchemaViolation by the caller; a TimedOut error is retried once; every
// other error kind aborts on the first attempt.
type RetryingRuntime struct {
	Inner               Runtime
	Backoff             BackoffPolicy
	MaxMalformedRepairs int
	Rand                *rand.Rand

	// Sleep is exposed so tests can run the policy without real waits.
	Sleep func(time.Duration)
}

// NewRetryingRuntime wraps inner with the default backoff schedule and
// spec.md §7's "retried up to 2 times" malformed-response allowance.
func NewRetryingRuntime(inner Runtime) *RetryingRuntime {
	return &RetryingRuntime{
		Inner:               inner,
		Backoff:             DefaultBackoff(),
		MaxMalformedRepairs: 2,
		Rand:                rand.New(rand.NewSource(1)),
		Sleep:               time.Sleep,
	}
}

const repairInstruction = "\n\nYour previous response did not contain exactly one fenced JSON code block. Respond again with your full answer as a single ```json ... ``` block and nothing else outside it.\n"

// Invoke attempts the dispatch up to Backoff.MaxAttempts times for
// Transient/RateLimited errors, and up to MaxMalformedRepairs more times
// (without consuming a backoff slot) for a Malformed response, per S7.
func (r *RetryingRuntime) Invoke(ctx context.Context, prompt string, opts InvokeOptions) (RawResponse, error) {
	attemptPrompt := prompt
	repairs := 0
	timeouts := 0

	for attempt := 1; ; attempt++ {
		resp, err := r.Inner.Invoke(ctx, attemptPrompt, opts)
		if err == nil {
			return resp, nil
		}

		var derr *DispatchError
		if !errors.As(err, &derr) {
			return resp, err
		}

		if derr.Kind == KindMalformed && repairs < r.MaxMalformedRepairs {
			repairs++
			attemptPrompt = attemptPrompt + repairInstruction
			continue
		}

		if derr.Kind == KindTimedOut {
			// spec.md §7: "counted as Transient once, then fatal" —
			// a single extra attempt regardless of the backoff budget.
			if timeouts >= 1 {
				return resp, err
			}
			timeouts++
		} else if !derr.Retryable() || attempt-repairs >= r.Backoff.MaxAttempts {
			return resp, err
		}

		delay := r.Backoff.Delay(attempt-repairs, r.Rand)
		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		default:
		}
		r.Sleep(delay)
	}
}
