package scaffold

import (
	"errors"
	"fmt"
)

// ErrRootExists is returned when a fresh run targets an existing path.
var ErrRootExists = errors.New("destination already exists")

// StepError records which pipeline step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
