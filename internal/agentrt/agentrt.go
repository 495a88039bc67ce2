// Package agentrt implements the Agent Runtime (C4): it spawns the
// external AI CLI configured for an edge as a subprocess in the
// iteration's workdir, streams its stdio into the journal, scans stdout
// for exactly one fenced JSON block, and classifies failures into the
// sentinel error kinds the Quality/Retry layer and Supervisor react to.
package agentrt

import (
	"context"
	"time"
)

// RawResponse is what Invoke returns on success: the single JSON object
// decoded from stdout's one fenced code block, plus the full stdout/stderr
// for journaling.
type RawResponse struct {
	JSON   []byte
	Stdout string
	Stderr string
}

// OutputSink receives stdout/stderr chunks as the subprocess runs, so the
// caller can journal them as AgentOutput events without Invoke knowing
// anything about the journal.
type OutputSink func(stream string, chunk string)

// InvokeOptions bundles an Invoke call's inputs beyond the prompt text
// itself.
type InvokeOptions struct {
	AgentID string // the ontology Agent kind id, used only for logging
	Tool    string // one of the closed tagged variants in Tools
	Model   string
	Workdir string
	Timeout time.Duration
	OnOutput OutputSink
}

// Runtime is the capability the Prompt Assembler's caller (the
// Supervisor) depends on: dispatch a prompt to an agent and get back its
// single semantic JSON result. Implementations wrap external CLIs.
type Runtime interface {
	Invoke(ctx context.Context, prompt string, opts InvokeOptions) (RawResponse, error)
}
