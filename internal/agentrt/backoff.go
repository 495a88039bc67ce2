package agentrt

import (
	"math/rand"
	"time"
)

// BackoffPolicy implements the Retry Policy's exponential schedule from
// spec.md §7: base 200ms, factor 2, ±25% jitter, capped at 30s, at most
// MaxAttempts tries total.
type BackoffPolicy struct {
	Base        time.Duration
	Factor      float64
	JitterFrac  float64
	Cap         time.Duration
	MaxAttempts int
}

// DefaultBackoff is the policy spec.md §7 fixes for Transient/RateLimited
// dispatch errors.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Base:        200 * time.Millisecond,
		Factor:      2,
		JitterFrac:  0.25,
		Cap:         30 * time.Second,
		MaxAttempts: 5,
	}
}

// Delay returns the wait before attempt number n (1-based: the delay before
// the 2nd, 3rd, ... try). n must be >= 1; Delay(1) is the first retry wait.
func (p BackoffPolicy) Delay(n int, rnd *rand.Rand) time.Duration {
	exp := float64(p.Base) * pow(p.Factor, n-1)
	if exp > float64(p.Cap) {
		exp = float64(p.Cap)
	}
	jitter := exp * p.JitterFrac
	// rnd.Float64() is in [0,1); shift to [-jitter, +jitter].
	delta := jitter*2*rnd.Float64() - jitter
	d := time.Duration(exp + delta)
	if d < 0 {
		d = 0
	}
	return d
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
