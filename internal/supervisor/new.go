package supervisor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dpopsuev/icl/internal/agentrt"
	"github.com/dpopsuev/icl/internal/config"
	"github.com/dpopsuev/icl/internal/logging"
	"github.com/dpopsuev/icl/internal/store"
	"github.com/dpopsuev/icl/pkg/ontology"
)

// Snapshot is written to <workdir>/config.snapshot.json at iteration
// start and read back unchanged on resume, so a mid-flight edit to the
// project's live config.json never changes an in-progress iteration.
type Snapshot struct {
	OntologyPath string        `json:"ontologyPath"`
	Config       config.Config `json:"config"`
	Goal         string        `json:"goal"`
}

func snapshotPath(workdir string) string {
	return filepath.Join(workdir, "config.snapshot.json")
}

func writeSnapshot(workdir string, snap Snapshot) error {
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("supervisor: marshal config snapshot: %w", err)
	}
	if err := os.WriteFile(snapshotPath(workdir), body, 0644); err != nil {
		return fmt.Errorf("supervisor: write config snapshot: %w", err)
	}
	return nil
}

// PeekSnapshot reads an iteration's config snapshot without opening its
// journal — callers like `resume` need the ontology path to load the
// graph before Resume can construct a Supervisor.
func PeekSnapshot(projectRoot, iterationID string) (Snapshot, error) {
	return readSnapshot(IterationDir(projectRoot, iterationID))
}

func readSnapshot(workdir string) (Snapshot, error) {
	data, err := os.ReadFile(snapshotPath(workdir))
	if err != nil {
		return Snapshot{}, fmt.Errorf("supervisor: read config snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("supervisor: parse config snapshot: %w", err)
	}
	return snap, nil
}

// templateAndPersonaDirs derives the conventional directories from spec.md
// §4.3: personas under team_members/ and prompt templates under
// relationship/prompt/, both siblings of the ontology file.
func templateAndPersonaDirs(ontologyPath string) (personaDir, templateDir string) {
	base := filepath.Dir(ontologyPath)
	return filepath.Join(base, "team_members"), filepath.Join(base, "relationship", "prompt")
}

// New allocates a fresh iteration: computes its id, creates the workdir,
// opens the journal, and writes the config snapshot.
func New(projectRoot, ontologyPath string, graph *ontology.Graph, cfg config.Config, goal string, rt agentrt.Runtime, gate ApprovalGate) (*Supervisor, error) {
	today := time.Now().UTC().Format("20060102")
	id, err := NextIterationID(projectRoot, today)
	if err != nil {
		return nil, err
	}

	workdir := IterationDir(projectRoot, id)
	if err := os.MkdirAll(filepath.Join(workdir, "documents"), 0755); err != nil {
		return nil, fmt.Errorf("supervisor: create workdir: %w", err)
	}

	snap := Snapshot{OntologyPath: ontologyPath, Config: cfg, Goal: goal}
	if err := writeSnapshot(workdir, snap); err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(workdir, "journal.db"))
	if err != nil {
		return nil, err
	}

	personaDir, templateDir := templateAndPersonaDirs(ontologyPath)
	if gate == nil {
		if cfg.Yolo {
			gate = AlwaysApprove()
		} else {
			gate = StdinApprovalGate()
		}
	}

	return &Supervisor{
		ProjectRoot:  projectRoot,
		IterationID:  id,
		Workdir:      workdir,
		OntologyPath: ontologyPath,
		PersonaDir:   personaDir,
		TemplateDir:  templateDir,
		Goal:         goal,
		Graph:        graph,
		Config:       cfg,
		Runtime:      rt,
		Store:        st,
		Gate:         gate,
		log:          logging.New("supervisor"),
	}, nil
}

// Resume reopens an existing iteration's workdir and journal, restoring
// the config snapshot and ontology graph captured at New time — a
// project's live config.json may have changed since, but a resumed
// iteration always continues under the settings it started with.
func Resume(projectRoot, iterationID string, graph *ontology.Graph, rt agentrt.Runtime, gate ApprovalGate) (*Supervisor, error) {
	workdir := IterationDir(projectRoot, iterationID)
	snap, err := readSnapshot(workdir)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(workdir, "journal.db"))
	if err != nil {
		return nil, err
	}

	personaDir, templateDir := templateAndPersonaDirs(snap.OntologyPath)
	if gate == nil {
		if snap.Config.Yolo {
			gate = AlwaysApprove()
		} else {
			gate = StdinApprovalGate()
		}
	}

	return &Supervisor{
		ProjectRoot:  projectRoot,
		IterationID:  iterationID,
		Workdir:      workdir,
		OntologyPath: snap.OntologyPath,
		PersonaDir:   personaDir,
		TemplateDir:  templateDir,
		Goal:         snap.Goal,
		Graph:        graph,
		Config:       snap.Config,
		Runtime:      rt,
		Store:        st,
		Gate:         gate,
		log:          logging.New("supervisor"),
	}, nil
}
