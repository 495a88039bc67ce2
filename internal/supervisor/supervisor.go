// Package supervisor implements the Iteration Supervisor (C8): the
// process entry point that allocates an iteration, owns its workdir and
// journal, and drives the plan/execute/record loop to completion,
// deadlock, or a terminal quality failure.
package supervisor

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/dpopsuev/icl/internal/agentrt"
	"github.com/dpopsuev/icl/internal/config"
	"github.com/dpopsuev/icl/internal/store"
	"github.com/dpopsuev/icl/pkg/ontology"
)

// Exit codes, exactly as enumerated in spec.md §6.
const (
	ExitSuccess         = 0
	ExitDeadlock        = 2
	ExitQualityFailed   = 3
	ExitOntologyInvalid = 4
	ExitAborted         = 5
	ExitError           = 1
)

// ApprovalGate asks for human confirmation before the first execution of
// a distinct verb in an iteration, unless Yolo is set. Returning false
// aborts the iteration.
type ApprovalGate func(verbID string) bool

// StdinApprovalGate blocks on stdin, grounded on the teacher's
// dispatch.StdinDispatcher banner-and-block-on-Enter idiom, scoped here
// to "first execution of each distinct verb" rather than every dispatch.
func StdinApprovalGate() ApprovalGate {
	reader := bufio.NewReader(os.Stdin)
	return func(verbID string) bool {
		fmt.Println()
		fmt.Println("================================================================")
		fmt.Printf("  About to run the first %q edge of this iteration.\n", verbID)
		fmt.Println("  Press Enter to continue, or Ctrl-C to abort.")
		fmt.Println("================================================================")
		fmt.Print("  > ")
		_, _ = reader.ReadString('\n')
		return true
	}
}

// AlwaysApprove never blocks — used when --yolo is set.
func AlwaysApprove() ApprovalGate {
	return func(string) bool { return true }
}

// Supervisor owns one iteration's workdir, journal, and execution loop.
type Supervisor struct {
	ProjectRoot  string
	IterationID  string
	Workdir      string
	OntologyPath string
	PersonaDir   string
	TemplateDir  string
	Goal         string

	Graph   *ontology.Graph
	Config  config.Config
	Runtime agentrt.Runtime
	Store   *store.Store
	Gate    ApprovalGate

	approvedVerbs map[string]bool
	log           *slog.Logger
}

func (s *Supervisor) firstUseOfVerb(verbID string) bool {
	if s.approvedVerbs == nil {
		s.approvedVerbs = make(map[string]bool)
	}
	if s.approvedVerbs[verbID] {
		return false
	}
	s.approvedVerbs[verbID] = true
	return true
}

// Close releases the iteration's journal handle.
func (s *Supervisor) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
