package gemini

import "fmt"

// AnalysisError means the analysis call exhausted every retry attempt. It
// carries the attempt count and the last underlying cause; callers treat it
// as terminal for the file.
type AnalysisError struct {
	Attempts int
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
