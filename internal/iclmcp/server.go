// Package iclmcp exposes the engine over the Model Context Protocol:
// icl.status inspects an iteration's world-state, icl.plan dry-runs the
// Scheduler without dispatching anything, and icl.run starts or resumes
// an iteration — grounded on the teacher's internal/metacalmcp.Server,
// generalized from a discovery-session API to the engine's own
// plan/execute/status surface.
package iclmcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dpopsuev/icl/internal/agentrt"
	"github.com/dpopsuev/icl/internal/config"
	"github.com/dpopsuev/icl/internal/logging"
	"github.com/dpopsuev/icl/internal/supervisor"
	"github.com/dpopsuev/icl/pkg/engine"
	"github.com/dpopsuev/icl/pkg/ontology"
)

// Server wraps the MCP SDK server and registers the engine's three tools.
type Server struct {
	MCPServer *sdkmcp.Server
	log       *slog.Logger
}

// NewServer creates an icl MCP server with its tools registered.
func NewServer() *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "icl", Version: "dev"}, nil),
		log:       logging.New("iclmcp"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "icl.status",
		Description: "Report an iteration's current world-state: produced and verified artifact kinds.",
	}, s.handleStatus)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "icl.plan",
		Description: "Dry-run the Scheduler against an iteration's current world-state and report the next action without executing it.",
	}, s.handlePlan)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "icl.run",
		Description: "Start a new iteration, or resume an existing one by id, and drive it to completion, deadlock, or quality failure.",
	}, s.handleRun)
}

type statusInput struct {
	ProjectRoot string `json:"project_root" jsonschema:"path to the project root"`
	IterationID string `json:"iteration_id" jsonschema:"iteration id, e.g. 20260803_0001"`
}

type statusOutput struct {
	Produced []string `json:"produced"`
	Verified []string `json:"verified"`
}

func (s *Server) handleStatus(_ context.Context, _ *sdkmcp.CallToolRequest, input statusInput) (*sdkmcp.CallToolResult, statusOutput, error) {
	_, state, err := s.loadWorldState(input.ProjectRoot, input.IterationID)
	if err != nil {
		return nil, statusOutput{}, err
	}
	return nil, statusOutput{Produced: sortedKeys(state.Produced), Verified: sortedKeys(state.Verified)}, nil
}

type planInput struct {
	ProjectRoot string `json:"project_root" jsonschema:"path to the project root"`
	IterationID string `json:"iteration_id" jsonschema:"iteration id, e.g. 20260803_0001"`
}

type planOutput struct {
	Action      string   `json:"action"` // "fire" | "done" | "deadlock"
	EdgeID      string   `json:"edge_id,omitempty"`
	Unreachable []string `json:"unreachable,omitempty"`
}

func (s *Server) handlePlan(_ context.Context, _ *sdkmcp.CallToolRequest, input planInput) (*sdkmcp.CallToolResult, planOutput, error) {
	graph, state, err := s.loadWorldState(input.ProjectRoot, input.IterationID)
	if err != nil {
		return nil, planOutput{}, err
	}

	action := engine.Plan(graph, state)
	switch action.Kind {
	case engine.ActionFire:
		return nil, planOutput{Action: "fire", EdgeID: action.Edge.ID}, nil
	case engine.ActionDeadlock:
		return nil, planOutput{Action: "deadlock", Unreachable: action.Unreachable}, nil
	default:
		return nil, planOutput{Action: "done"}, nil
	}
}

type runInput struct {
	ProjectRoot  string `json:"project_root" jsonschema:"path to the project root"`
	OntologyPath string `json:"ontology_path,omitempty" jsonschema:"ontology JSON path; required to start a new iteration"`
	IterationID  string `json:"iteration_id,omitempty" jsonschema:"existing iteration id to resume instead of starting a new one"`
	Goal         string `json:"goal,omitempty" jsonschema:"high-level user goal for a new iteration"`
	Yolo         bool   `json:"yolo,omitempty" jsonschema:"skip the per-verb human approval gate"`
}

type runOutput struct {
	IterationID string `json:"iteration_id"`
	ExitCode    int    `json:"exit_code"`
	Status      string `json:"status"`
}

func (s *Server) handleRun(ctx context.Context, _ *sdkmcp.CallToolRequest, input runInput) (*sdkmcp.CallToolResult, runOutput, error) {
	rt := agentrt.NewRetryingRuntime(agentrt.NewProcessRuntime())
	gate := supervisor.AlwaysApprove()
	if !input.Yolo {
		gate = supervisor.StdinApprovalGate()
	}

	var sup *supervisor.Supervisor
	var err error
	if input.IterationID != "" {
		snap, serr := supervisor.PeekSnapshot(input.ProjectRoot, input.IterationID)
		if serr != nil {
			return nil, runOutput{}, fmt.Errorf("icl.run: %w", serr)
		}
		graph, gerr := ontology.Load(snap.OntologyPath)
		if gerr != nil {
			return nil, runOutput{}, fmt.Errorf("icl.run: %w", gerr)
		}
		sup, err = supervisor.Resume(input.ProjectRoot, input.IterationID, graph, rt, gate)
	} else {
		if input.OntologyPath == "" {
			return nil, runOutput{}, fmt.Errorf("icl.run: ontology_path is required to start a new iteration")
		}
		cfg, cerr := config.Load(input.ProjectRoot)
		if cerr != nil {
			cfg = config.Default()
		}
		cfg.Yolo = input.Yolo
		graph, gerr := ontology.Load(input.OntologyPath)
		if gerr != nil {
			return nil, runOutput{}, fmt.Errorf("icl.run: %w", gerr)
		}
		sup, err = supervisor.New(input.ProjectRoot, input.OntologyPath, graph, cfg, input.Goal, rt, gate)
	}
	if err != nil {
		return nil, runOutput{}, fmt.Errorf("icl.run: %w", err)
	}
	defer sup.Close()

	exitCode, runErr := sup.Run(ctx)
	status := "ok"
	if runErr != nil {
		status = runErr.Error()
	}
	s.log.Info("icl.run complete", "iterationId", sup.IterationID, "exitCode", exitCode)
	return nil, runOutput{IterationID: sup.IterationID, ExitCode: exitCode, Status: status}, nil
}

func (s *Server) loadWorldState(projectRoot, iterationID string) (*ontology.Graph, engine.WorldState, error) {
	snap, err := supervisor.PeekSnapshot(projectRoot, iterationID)
	if err != nil {
		return nil, engine.WorldState{}, fmt.Errorf("load snapshot: %w", err)
	}
	graph, err := ontology.Load(snap.OntologyPath)
	if err != nil {
		return nil, engine.WorldState{}, fmt.Errorf("load ontology: %w", err)
	}
	state, err := supervisor.ReplayWorldState(projectRoot, iterationID, graph.Root())
	if err != nil {
		return nil, engine.WorldState{}, fmt.Errorf("replay world-state: %w", err)
	}
	return graph, state, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
