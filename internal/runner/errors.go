package runner

import (
	"errors"
	"fmt"

	"github.com/petasbytes/giftscout/internal/remote"
)

var (
	ErrEmptyInput  = errors.New("empty input")
	ErrBusy        = errors.New("a submission is already in flight")
	ErrCommit      = errors.New("commit message")
	ErrRunStart    = errors.New("start run")
	ErrRunFailed   = errors.New("run produced no answer")
	ErrPollTimeout = errors.New("timed out waiting for run")

	// ErrMissingReply also matches ErrRunFailed.
	ErrMissingReply = fmt.Errorf("%w: no assistant reply for run", ErrRunFailed)
)

// RunError reports a run that ended in a terminal status other than completed.
type RunError struct {
	RunID  string
	Status remote.RunStatus
	Reason string
}

func (e *RunError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("run %s ended %s", e.RunID, e.Status)
	}
	return fmt.Sprintf("run %s ended %s: %s", e.RunID, e.Status, e.Reason)
}

func (e *RunError) Is(target error) bool {
	return target == ErrRunFailed
}
