package linerun

import (
	"errors"
	"os"
	"os/exec"
)

// Result is the outcome of draining a Stream.
type Result struct {
	ExitCode int
	Error    error
	Lines    []string
}

// Collect reads every remaining line from s. ExitCode is taken from a
// *ProcessFailedError when the process failed and is 0 otherwise, including
// for fire-and-forget streams whose exit status is never observed.
func Collect(s *Stream) Result {
	var res Result
	if s == nil {
		return res
	}
	for s.Next() {
		res.Lines = append(res.Lines, s.Text())
	}
	res.Error = s.Err()
	if code, ok := ExitCode(res.Error); ok {
		res.ExitCode = code
	}
	return res
}

func exitCodeFrom(waitErr error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) && exitErr.ProcessState != nil {
		return exitErr.ProcessState.ExitCode()
	}
	return -1
}
