package linerun

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Reasons reported by LaunchError.
const (
	ReasonNotFound      = "not found"
	ReasonPermission    = "permission denied"
	ReasonNotExecutable = "not executable"
	ReasonDirectory     = "working directory unavailable"
	ReasonDenied        = "denied by policy"
	ReasonOther         = "launch failed"
)

// LaunchError reports that the operating system could not start the command.
// It is always returned wrapped in the ErrLaunch class.
type LaunchError struct {
	Command string
	Path    string
	Dir     string
	Reason  string
	Err     error
}

func (e *LaunchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("linerun: cannot start %q in %q: %s: %v", e.Path, e.Dir, e.Reason, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func newLaunchError(command, path, dir, reason string, err error) error {
	if reason == "" {
		reason = classifyLaunchErr(err)
	}
	return ErrLaunch.Wrap(&LaunchError{
		Command: command,
		Path:    path,
		Dir:     dir,
		Reason:  reason,
		Err:     err,
	})
}

// checkDir verifies dir exists and is a directory before anything is forked.
// A failed chdir in the child reports ENOENT just like a missing executable.
func checkDir(dir string) error {
	if dir == "" {
		return nil
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &os.PathError{Op: "chdir", Path: dir, Err: errNotDir}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
