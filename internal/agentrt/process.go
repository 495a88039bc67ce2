package agentrt

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// CLITool is one of the closed tagged variants of external AI CLIs this
// runtime can dispatch to. Each constructs the same shape of subprocess
// invocation; only the binary name and argument convention differ.
type CLITool struct {
	Name       string
	binary     string
	promptArgs func(model string) []string
}

// Tools is the closed set of supported CLI tools, grounded on the
// teacher's one-struct-per-transport Dispatcher pattern. The prompt is
// always delivered on stdin; promptArgs supplies any flags needed to
// select a model and force non-interactive, single-shot execution.
var Tools = map[string]CLITool{
	"cursor": {
		Name: "cursor", binary: "cursor-agent",
		promptArgs: func(model string) []string {
			args := []string{"--print", "--output-format", "text"}
			if model != "" {
				args = append(args, "--model", model)
			}
			return args
		},
	},
	"gemini": {
		Name: "gemini", binary: "gemini",
		promptArgs: func(model string) []string {
			args := []string{"--yolo"}
			if model != "" {
				args = append(args, "--model", model)
			}
			return args
		},
	},
	"claude": {
		Name: "claude", binary: "claude",
		promptArgs: func(model string) []string {
			args := []string{"--print"}
			if model != "" {
				args = append(args, "--model", model)
			}
			return args
		},
	},
	"copilot": {
		Name: "copilot", binary: "copilot",
		promptArgs: func(model string) []string {
			args := []string{"--prompt", "-"}
			if model != "" {
				args = append(args, "--model", model)
			}
			return args
		},
	},
	"opencode": {
		Name: "opencode", binary: "opencode",
		promptArgs: func(model string) []string {
			args := []string{"run"}
			if model != "" {
				args = append(args, "--model", model)
			}
			return args
		},
	},
}

// ProcessRuntime dispatches to any CLITool in Tools by spawning it as a
// subprocess, grounded on the teacher's lifecycle.go SIGTERM-grace-SIGKILL
// pattern and the exec.Command plumbing its StdinDispatcher never needed
// (that one just blocked on a human).
type ProcessRuntime struct {
	GracePeriod time.Duration
}

// NewProcessRuntime returns a ProcessRuntime with the teacher's 3-second
// grace period before escalating to SIGKILL.
func NewProcessRuntime() *ProcessRuntime {
	return &ProcessRuntime{GracePeriod: 3 * time.Second}
}

func (r *ProcessRuntime) Invoke(ctx context.Context, prompt string, opts InvokeOptions) (RawResponse, error) {
	tool, ok := Tools[opts.Tool]
	if !ok {
		return RawResponse{}, &DispatchError{Kind: KindToolNotFound, Tool: opts.Tool, Detail: "unknown agent tool"}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, tool.binary, tool.promptArgs(opts.Model)...)
	cmd.Dir = opts.Workdir
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = r.GracePeriod

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return RawResponse{}, fmt.Errorf("agentrt: stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return RawResponse{}, fmt.Errorf("agentrt: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return RawResponse{}, classifyExitError(tool.Name, "", false, err)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error { return pump(stdoutPipe, "stdout", &stdoutBuf, opts.OnOutput) })
	g.Go(func() error { return pump(stderrPipe, "stderr", &stderrBuf, opts.OnOutput) })

	pumpErr := g.Wait()
	waitErr := cmd.Wait()

	stdout, stderr := stdoutBuf.String(), stderrBuf.String()
	timedOut := runCtx.Err() != nil

	if waitErr != nil {
		return RawResponse{Stdout: stdout, Stderr: stderr}, classifyExitError(tool.Name, stderr, timedOut, waitErr)
	}
	if pumpErr != nil {
		return RawResponse{Stdout: stdout, Stderr: stderr}, fmt.Errorf("agentrt: read subprocess output: %w", pumpErr)
	}

	jsonBody, err := ExtractJSON(tool.Name, stdout)
	if err != nil {
		return RawResponse{Stdout: stdout, Stderr: stderr}, err
	}

	return RawResponse{JSON: jsonBody, Stdout: stdout, Stderr: stderr}, nil
}

func pump(r io.Reader, stream string, buf *bytes.Buffer, sink OutputSink) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if sink != nil {
			sink(stream, line)
		}
	}
	return scanner.Err()
}
