package turnloop

import "fmt"

// RecoverableTurnError marks a failure that abandons the current turn but not
// the session. The loop reports it and returns to the ready prompt; history
// and session state carry no trace of the failed turn beyond the counter.
type RecoverableTurnError struct {
	Stage string
	Err   error
}

func (e *RecoverableTurnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RecoverableTurnError) Unwrap() error {
	return e.Err
}

func recoverable(stage string, err error) error {
	return &RecoverableTurnError{Stage: stage, Err: err}
}
