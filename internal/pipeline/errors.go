package pipeline

import (
	"errors"
	"fmt"
)

// InternalError is a compiler bug caught at the pipeline boundary.
type InternalError struct {
	Stage Stage
	// Decl is the qualified name being compiled, if any.
	Decl  string
	Value any
	Stack []byte
}

func (e *InternalError) Error() string {
	if e.Decl != "" {
		return fmt.Sprintf("internal compiler error in %s (%s): %v", e.Stage, e.Decl, e.Value)
	}
	return fmt.Sprintf("internal compiler error in %s: %v", e.Stage, e.Value)
}

func (e *InternalError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// IsInternal reports whether err carries an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
