package supervisor

import (
	"path/filepath"

	"github.com/dpopsuev/icl/internal/store"
)

// Summary is a read-only snapshot of one iteration's journal, used by the
// `list` command to render a status table without holding a live
// Supervisor (and therefore without the journal's exclusive-writer
// ownership rule applying).
type Summary struct {
	IterationID string
	Status      string
	StartedAt   string
	EdgesRun    int
}

// terminalStatus maps a journal's last structurally-terminal event kind to
// the status string `list` displays; an iteration with none of these as
// its last event is still "in-progress".
var terminalStatus = map[store.EventKind]string{
	store.EventIterationComplete:  "complete",
	store.EventDeadlock:           "deadlock",
	store.EventQualityBelowThresh: "quality-failed",
	store.EventAborted:            "aborted",
	store.EventError:              "error",
}

// Summarize opens iterationID's journal (through store.Open, which opens
// it read-write), folds it into a Summary, and closes it again.
func Summarize(projectRoot, iterationID string) (Summary, error) {
	workdir := IterationDir(projectRoot, iterationID)
	st, err := store.Open(filepath.Join(workdir, "journal.db"))
	if err != nil {
		return Summary{}, err
	}
	defer st.Close()

	events, err := st.Events(iterationID)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{IterationID: iterationID, Status: "in-progress"}
	for _, e := range events {
		if sum.StartedAt == "" {
			sum.StartedAt = e.CreatedAt
		}
		if e.Kind == store.EventEdgeStart {
			sum.EdgesRun++
		}
		if status, ok := terminalStatus[e.Kind]; ok {
			sum.Status = status
		} else {
			sum.Status = "in-progress"
		}
	}
	return sum, nil
}
