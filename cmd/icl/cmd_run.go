package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dpopsuev/icl/internal/agentrt"
	"github.com/dpopsuev/icl/internal/config"
	"github.com/dpopsuev/icl/internal/supervisor"
	"github.com/dpopsuev/icl/pkg/ontology"
)

var runFlags struct {
	project  string
	ontology string
	model    string
	tool     string
	yolo     bool
	goal     string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a new iteration and drive it to completion, deadlock, or quality failure",
	Long: "run loads the ontology given by --ontology, allocates a fresh iteration id, and\n" +
		"repeatedly plans/dispatches/persists edges until the Scheduler reports\n" +
		"Done or Deadlock, or a Verification/Refinement loop exhausts its budget.",
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.project, "project", ".", "Project root")
	f.StringVar(&runFlags.ontology, "ontology", "", "Path to the ontology JSON file (required)")
	f.StringVar(&runFlags.model, "model", "", "Model identifier override for this run")
	f.StringVar(&runFlags.tool, "tool", "", "Agent CLI tool override for this run (cursor|gemini|claude|copilot|opencode)")
	f.BoolVar(&runFlags.yolo, "yolo", false, "Skip the per-verb human approval gate")
	f.StringVar(&runFlags.goal, "goal", "", "High-level user goal for this iteration")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(runFlags.project)
	if err != nil {
		cfg = config.Default()
	}
	if runFlags.model != "" {
		cfg.DefaultModel = runFlags.model
	}
	if runFlags.tool != "" {
		cfg.DefaultAgentTool = runFlags.tool
	}
	if runFlags.yolo {
		cfg.Yolo = true
	}

	ontologyPath := runFlags.ontology
	if ontologyPath == "" {
		return fmt.Errorf("run: --ontology is required")
	}

	graph, err := ontology.Load(ontologyPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		os.Exit(supervisor.ExitOntologyInvalid)
	}

	rt := agentrt.NewRetryingRuntime(agentrt.NewProcessRuntime())

	var gate supervisor.ApprovalGate
	if cfg.Yolo {
		gate = supervisor.AlwaysApprove()
	} else {
		gate = supervisor.StdinApprovalGate()
	}

	sup, err := supervisor.New(runFlags.project, ontologyPath, graph, cfg, runFlags.goal, rt, gate)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer sup.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Iteration %s started in %s\n", sup.IterationID, sup.Workdir)

	exitCode, runErr := sup.Run(ctx)
	reportOutcome(out, sup.IterationID, exitCode, runErr)
	if exitCode != supervisor.ExitSuccess {
		os.Exit(exitCode)
	}
	return nil
}

func reportOutcome(out io.Writer, iterationID string, exitCode int, err error) {
	switch exitCode {
	case supervisor.ExitSuccess:
		fmt.Fprintf(out, "Iteration %s complete.\n", iterationID)
	case supervisor.ExitDeadlock:
		fmt.Fprintf(out, "Iteration %s deadlocked: %v\n", iterationID, err)
	case supervisor.ExitQualityFailed:
		fmt.Fprintf(out, "Iteration %s terminated: quality below threshold.\n", iterationID)
	case supervisor.ExitOntologyInvalid:
		fmt.Fprintf(out, "Iteration %s aborted: ontology invalid: %v\n", iterationID, err)
	case supervisor.ExitAborted:
		fmt.Fprintf(out, "Iteration %s aborted.\n", iterationID)
	default:
		fmt.Fprintf(out, "Iteration %s failed: %v\n", iterationID, err)
	}
}
