package ontology

import "errors"

var (
	// ErrInvalid wraps structural or semantic validation failures.
	ErrInvalid = errors.New("ontology: invalid")

	// ErrCyclic wraps a detected Dependency-edge cycle.
	ErrCyclic = errors.New("ontology: cyclic dependency")

	// ErrIO wraps a failure to read an ontology or meta-schema file.
	ErrIO = errors.New("ontology: io error")
)

// InvalidError carries the structural/semantic reason and, where
// applicable, the path of the offending document.
type InvalidError struct {
	Reason string
	Path   string
}

func (e *InvalidError) Error() string {
	if e.Path == "" {
		return "ontology: invalid: " + e.Reason
	}
	return "ontology: invalid: " + e.Reason + " (" + e.Path + ")"
}

func (e *InvalidError) Unwrap() error { return ErrInvalid }

// CyclicError carries the artifact-type ids forming a Dependency cycle.
type CyclicError struct {
	Cycle []string
}

func (e *CyclicError) Error() string {
	s := "ontology: cyclic dependency: "
	for i, id := range e.Cycle {
		if i > 0 {
			s += " -> "
		}
		s += id
	}
	return s
}

func (e *CyclicError) Unwrap() error { return ErrCyclic }

// IOError carries the path of the ontology or meta-schema document that
// could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return "ontology: io error: " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return ErrIO }
