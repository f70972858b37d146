package worker

import (
	"fmt"
)

// PersistenceError means a job's final write did not reach the database.
// The job is left running so the recovery sweep hands it out again.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
