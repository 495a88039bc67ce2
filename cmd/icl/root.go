// icl is the Iteration Supervisor's CLI: init, run, list, resume — the
// cobra-based front door onto the graph-execution engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpopsuev/icl/internal/config"
	"github.com/dpopsuev/icl/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "icl",
	Short: "Ontology-driven autonomous software-synthesis orchestrator",
	Long: "icl traverses a declarative knowledge graph of software-engineering\n" +
		"artifacts, agents, and verbs, dispatching each graph edge to an AI CLI\n" +
		"acting as the named agent, until the graph's completion condition holds.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(*cobra.Command, []string) {
		logging.Init(logging.ParseLevel(config.LogLevel()), "text")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
