package supervisor

import (
	"context"

	"github.com/dpopsuev/icl/internal/store"
	"github.com/dpopsuev/icl/pkg/engine"
)

// Run drives the plan/execute/record loop from spec.md §4.8:
// "edge = plan(); if Done: exit(0); if Deadlock: exit(nonzero);
// execute(edge); record outcome" — until the iteration completes,
// deadlocks, fails a quality gate terminally, is aborted, or a
// non-semantic error occurs.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	for {
		select {
		case <-ctx.Done():
			_, _ = s.Store.Append(s.IterationID, store.EventAborted, store.AbortedPayload{Reason: "context canceled"})
			return ExitAborted, ctx.Err()
		default:
		}

		state, err := s.Store.ReplayWorldState(s.IterationID, s.Graph.Root())
		if err != nil {
			return ExitError, err
		}

		action := engine.Plan(s.Graph, state)
		switch action.Kind {
		case engine.ActionDone:
			if _, err := s.Store.Append(s.IterationID, store.EventIterationComplete, struct{}{}); err != nil {
				return ExitError, err
			}
			s.log.Info("iteration complete", "iterationId", s.IterationID)
			return ExitSuccess, nil

		case engine.ActionDeadlock:
			if _, err := s.Store.Append(s.IterationID, store.EventDeadlock, store.DeadlockPayload{Unreachable: action.Unreachable}); err != nil {
				return ExitError, err
			}
			s.log.Warn("deadlock", "unreachable", action.Unreachable)
			return ExitDeadlock, nil

		case engine.ActionFire:
			exitCode, terminal, err := s.execute(ctx, action.Edge, state)
			if terminal {
				return exitCode, err
			}
			if err != nil {
				return exitCode, err
			}
			// edge completed normally; loop to replay state and plan again.
		}
	}
}
