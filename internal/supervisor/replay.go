package supervisor

import (
	"path/filepath"

	"github.com/dpopsuev/icl/internal/store"
	"github.com/dpopsuev/icl/pkg/engine"
)

// ReplayWorldState opens iterationID's journal (through store.Open, which
// opens it read-write) only to read it, folds it into a
// WorldState, and closes it again — used by callers (the MCP surface)
// that need a snapshot of world-state without holding a live Supervisor.
func ReplayWorldState(projectRoot, iterationID, rootKind string) (engine.WorldState, error) {
	workdir := IterationDir(projectRoot, iterationID)
	st, err := store.Open(filepath.Join(workdir, "journal.db"))
	if err != nil {
		return engine.WorldState{}, err
	}
	defer st.Close()
	return st.ReplayWorldState(iterationID, rootKind)
}
