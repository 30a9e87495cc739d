package linerun

import (
	"errors"
	"fmt"

	"github.com/zeebo/errs"
)

var (
	// ErrParse classifies command lines that cannot be split into words.
	ErrParse  = errs.Class("parse")
	// ErrLaunch classifies failures to start the child process.
	ErrLaunch = errs.Class("launch")

	// ErrEmptyCommand is returned for a command line with no words.
	ErrEmptyCommand  = ErrParse.New("command is empty")
	// ErrProcessFailed matches every *ProcessFailedError with errors.Is.
	ErrProcessFailed = errors.New("linerun: process exited non-zero")
)

// ProcessFailedError is returned once a waited-for command has delivered all of
// its output and exited with a non-zero status. When the process was
// terminated by a signal, ExitCode is the negated signal number and Signal
// names it.
type ProcessFailedError struct {
	ExitCode int
	Command  string
	Signal   string
}

func (e *ProcessFailedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Signal != "" {
		return fmt.Sprintf("linerun: command %q terminated by signal %s", e.Command, e.Signal)
	}
	return fmt.Sprintf("linerun: command %q returned non-zero exit status %d", e.Command, e.ExitCode)
}

func (e *ProcessFailedError) Is(target error) bool {
	return target == ErrProcessFailed
}

// ExitCode extracts the exit status carried by err. It reports false when err
// is not (and does not wrap) a *ProcessFailedError.
func ExitCode(err error) (int, bool) {
	var pf *ProcessFailedError
	if errors.As(err, &pf) {
		return pf.ExitCode, true
	}
	return 0, false
}
