package extraction

import "fmt"

// ExtractionError reports a chunk-level extraction failure: either a
// non-retryable HTTP error, or transport failures that survived every retry.
type ExtractionError struct {
	StatusCode int
	Body       string
	Attempts   int
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extraction failed after %d attempt(s): status %d: %s", e.Attempts, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("extraction failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
