package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dpopsuev/icl/internal/agentrt"
	"github.com/dpopsuev/icl/internal/supervisor"
	"github.com/dpopsuev/icl/pkg/ontology"
)

var resumeFlags struct {
	project string
}

var resumeCmd = &cobra.Command{
	Use:   "resume <iteration-id>",
	Short: "Replay an iteration's journal and continue from where it left off",
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeFlags.project, "project", ".", "Project root")
}

func runResume(cmd *cobra.Command, args []string) error {
	iterationID := args[0]

	snap, err := supervisor.PeekSnapshot(resumeFlags.project, iterationID)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	graph, err := ontology.Load(snap.OntologyPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		os.Exit(supervisor.ExitOntologyInvalid)
	}

	rt := agentrt.NewRetryingRuntime(agentrt.NewProcessRuntime())

	var gate supervisor.ApprovalGate
	if snap.Config.Yolo {
		gate = supervisor.AlwaysApprove()
	} else {
		gate = supervisor.StdinApprovalGate()
	}

	sup, err := supervisor.Resume(resumeFlags.project, iterationID, graph, rt, gate)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	defer sup.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Resuming iteration %s in %s\n", sup.IterationID, sup.Workdir)

	exitCode, runErr := sup.Run(ctx)
	reportOutcome(out, sup.IterationID, exitCode, runErr)
	if exitCode != supervisor.ExitSuccess {
		os.Exit(exitCode)
	}
	return nil
}
