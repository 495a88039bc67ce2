package agentrt

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

// scriptedRuntime returns the next element of responses/errs on each call,
// recording the prompts it was invoked with.
type scriptedRuntime struct {
	responses []RawResponse
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedRuntime) Invoke(ctx context.Context, prompt string, opts InvokeOptions) (RawResponse, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.responses[i], s.errs[i]
}

func noSleep(time.Duration) {}

func TestRetryingRuntime_RetriesTransientUntilSuccess(t *testing.T) {
	inner := &scriptedRuntime{
		responses: []RawResponse{{}, {}, {JSON: []byte(`{"ok":true}`)}},
		errs: []error{
			&DispatchError{Kind: KindTransient, Tool: "claude"},
			&DispatchError{Kind: KindTransient, Tool: "claude"},
			nil,
		},
	}
	r := NewRetryingRuntime(inner)
	r.Sleep = noSleep
	r.Rand = rand.New(rand.NewSource(1))

	resp, err := r.Invoke(context.Background(), "do the thing", InvokeOptions{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if string(resp.JSON) != `{"ok":true}` {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryingRuntime_GivesUpAfterMaxAttempts(t *testing.T) {
	errs := make([]error, 0)
	resps := make([]RawResponse, 0)
	for i := 0; i < 10; i++ {
		errs = append(errs, &DispatchError{Kind: KindRateLimited, Tool: "claude"})
		resps = append(resps, RawResponse{})
	}
	inner := &scriptedRuntime{responses: resps, errs: errs}
	r := NewRetryingRuntime(inner)
	r.Sleep = noSleep

	_, err := r.Invoke(context.Background(), "p", InvokeOptions{})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if inner.calls != r.Backoff.MaxAttempts {
		t.Fatalf("expected exactly %d attempts, got %d", r.Backoff.MaxAttempts, inner.calls)
	}
}

func TestRetryingRuntime_MalformedExhaustsTwoRepairsThenAborts(t *testing.T) {
	inner := &scriptedRuntime{
		responses: []RawResponse{{}, {}, {}},
		errs: []error{
			&DispatchError{Kind: KindMalformed, Tool: "claude"},
			&DispatchError{Kind: KindMalformed, Tool: "claude"},
			&DispatchError{Kind: KindMalformed, Tool: "claude"},
		},
	}
	r := NewRetryingRuntime(inner)
	r.Sleep = noSleep

	_, err := r.Invoke(context.Background(), "original prompt", InvokeOptions{})
	if err == nil {
		t.Fatal("expected malformed error to surface after exhausting both repair attempts")
	}
	derr, ok := err.(*DispatchError)
	if !ok || derr.Kind != KindMalformed {
		t.Fatalf("expected a surfaced KindMalformed error, got %T: %v", err, err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected exactly 3 attempts (original + 2 repairs), got %d", inner.calls)
	}
	if inner.prompts[1] == inner.prompts[0] || inner.prompts[2] == inner.prompts[1] {
		t.Fatal("expected each repair attempt's prompt to differ from the previous")
	}
}

// TestRetryingRuntime_S7_MalformedRepairsOnceThenSucceeds mirrors spec
// scenario S7: an agent returns two JSON blocks, one repair retry follows,
// and the second attempt succeeds.
func TestRetryingRuntime_S7_MalformedRepairsOnceThenSucceeds(t *testing.T) {
	inner := &scriptedRuntime{
		responses: []RawResponse{{}, {JSON: []byte(`{"kind":"Code"}`)}},
		errs: []error{
			&DispatchError{Kind: KindMalformed, Tool: "claude", Detail: "expected exactly one fenced code block, found 2"},
			nil,
		},
	}
	r := NewRetryingRuntime(inner)
	r.Sleep = noSleep

	resp, err := r.Invoke(context.Background(), "original prompt", InvokeOptions{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if string(resp.JSON) != `{"kind":"Code"}` {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if inner.calls != 2 {
		t.Fatalf("expected exactly 2 attempts (original + 1 repair), got %d", inner.calls)
	}
}

func TestRetryingRuntime_NonRetryableAbortsImmediately(t *testing.T) {
	inner := &scriptedRuntime{
		responses: []RawResponse{{}},
		errs:      []error{&DispatchError{Kind: KindToolNotFound, Tool: "claude"}},
	}
	r := NewRetryingRuntime(inner)
	r.Sleep = noSleep

	_, err := r.Invoke(context.Background(), "p", InvokeOptions{})
	if err == nil {
		t.Fatal("expected ToolNotFound to abort")
	}
	if inner.calls != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", inner.calls)
	}
}

func TestRetryingRuntime_TimeoutRetriedOnceThenFatal(t *testing.T) {
	inner := &scriptedRuntime{
		responses: []RawResponse{{}, {}},
		errs: []error{
			&DispatchError{Kind: KindTimedOut, Tool: "claude"},
			&DispatchError{Kind: KindTimedOut, Tool: "claude"},
		},
	}
	r := NewRetryingRuntime(inner)
	r.Sleep = noSleep

	_, err := r.Invoke(context.Background(), "p", InvokeOptions{})
	if err == nil {
		t.Fatal("expected the second timeout to be fatal")
	}
	if inner.calls != 2 {
		t.Fatalf("expected exactly 2 attempts (one retry after the first timeout), got %d", inner.calls)
	}
}

func TestBackoffPolicy_DelayRespectsCapAndStaysNonNegative(t *testing.T) {
	p := DefaultBackoff()
	rnd := rand.New(rand.NewSource(42))
	for n := 1; n <= 10; n++ {
		d := p.Delay(n, rnd)
		if d < 0 {
			t.Fatalf("delay %d was negative: %v", n, d)
		}
		if d > p.Cap+p.Cap/4 {
			t.Fatalf("delay %d exceeded cap+jitter: %v", n, d)
		}
	}
}
