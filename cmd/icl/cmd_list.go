package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dpopsuev/icl/internal/supervisor"
)

var listFlags struct {
	project string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List iterations with status",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listFlags.project, "project", ".", "Project root")
}

func runList(cmd *cobra.Command, _ []string) error {
	ids, err := supervisor.ListIterations(listFlags.project)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No iterations yet. Run 'icl run' to start one.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Iteration", "Status", "Started", "Edges Run"})

	for _, id := range ids {
		sum, err := supervisor.Summarize(listFlags.project, id)
		if err != nil {
			t.AppendRow(table.Row{id, "unreadable", "", ""})
			continue
		}
		t.AppendRow(table.Row{sum.IterationID, sum.Status, sum.StartedAt, sum.EdgesRun})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
