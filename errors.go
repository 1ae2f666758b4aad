package docugraph

import "fmt"

// StageError reports which pipeline stage failed and how far extraction got
// before the run was abandoned.
type StageError struct {
	Stage    string
	ChunksOK int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed after %d successful chunks: %v", e.Stage, e.ChunksOK, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
