// Package config loads and snapshots the project-level configuration
// under .infinitecodingloop/config.json (spec.md §6), and resolves the
// ICL_HOME/ICL_LOG_LEVEL environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ModelOverride is the {tool, model} pair per_verb_model maps a verb id to.
type ModelOverride struct {
	Tool  string `json:"tool"`
	Model string `json:"model"`
}

// Config is config.json's shape, exactly the fields enumerated in
// spec.md §6.
type Config struct {
	DefaultModel     string                   `json:"default_model"`
	DefaultAgentTool string                   `json:"default_agent_tool"`
	SpecFolder       string                   `json:"spec_folder"`
	Yolo             bool                     `json:"yolo"`
	PerVerbModel     map[string]ModelOverride `json:"per_verb_model,omitempty"`
}

// Default returns the configuration init scaffolds for a fresh project.
func Default() Config {
	return Config{
		DefaultModel:     "",
		DefaultAgentTool: "claude",
		SpecFolder:       "spec",
		Yolo:             false,
	}
}

// ConfigPath returns the path to a project's config.json.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".infinitecodingloop", "config.json")
}

// Load reads and parses a project's config.json.
func Load(projectRoot string) (Config, error) {
	path := ConfigPath(projectRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// Save writes cfg to a project's config.json, creating
// .infinitecodingloop/ if needed.
func Save(projectRoot string, c Config) error {
	dir := filepath.Join(projectRoot, ".infinitecodingloop")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	body, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(ConfigPath(projectRoot), body, 0644); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// ResolveForVerb returns the {tool, model} a given verb id should dispatch
// with: a per_verb_model override if one matches, else the config's
// defaults.
func (c Config) ResolveForVerb(verbID string) (tool, model string) {
	if override, ok := c.PerVerbModel[verbID]; ok {
		tool, model = override.Tool, override.Model
		if tool == "" {
			tool = c.DefaultAgentTool
		}
		if model == "" {
			model = c.DefaultModel
		}
		return tool, model
	}
	return c.DefaultAgentTool, c.DefaultModel
}

// Home resolves ICL_HOME, defaulting to ~/.infinitecodingloop per spec.md §6.
func Home() string {
	if h := os.Getenv("ICL_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".infinitecodingloop"
	}
	return filepath.Join(home, ".infinitecodingloop")
}

// LogLevel resolves ICL_LOG_LEVEL, defaulting to "info".
func LogLevel() string {
	if lvl := os.Getenv("ICL_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}
