package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dpopsuev/icl/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init <project>",
	Short: "Scaffold .infinitecodingloop/ and config.json for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	projectRoot := args[0]
	if err := os.MkdirAll(projectRoot, 0755); err != nil {
		return fmt.Errorf("init: create project dir: %w", err)
	}

	if _, err := os.Stat(config.ConfigPath(projectRoot)); err == nil {
		return fmt.Errorf("init: %s already exists", config.ConfigPath(projectRoot))
	}

	cfg := config.Default()
	if err := config.Save(projectRoot, cfg); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	specDir := filepath.Join(projectRoot, cfg.SpecFolder)
	if err := os.MkdirAll(specDir, 0755); err != nil {
		return fmt.Errorf("init: create spec folder: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized %s\n", config.ConfigPath(projectRoot))
	fmt.Fprintf(out, "Spec folder: %s\n", specDir)
	fmt.Fprintf(out, "Place an ontology JSON file under the project and point --ontology at it to run.\n")
	return nil
}
