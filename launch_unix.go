//go:build unix

package linerun

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

var errNotDir error = unix.ENOTDIR

func classifyLaunchErr(err error) string {
	switch {
	case err == nil:
		return ""
	case isNotFound(err) || errors.Is(err, unix.ENOENT):
		return ReasonNotFound
	case errors.Is(err, os.ErrPermission) || errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM):
		return ReasonPermission
	case errors.Is(err, unix.ENOEXEC):
		return ReasonNotExecutable
	default:
		return ReasonOther
	}
}

// signalStatus reports the number and name of the signal that terminated the
// process, or 0 and "" if it exited normally.
func signalStatus(state *os.ProcessState) (int, string) {
	if state == nil {
		return 0, ""
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, ""
	}
	sig := ws.Signal()
	if name := unix.SignalName(sig); name != "" {
		return int(sig), name
	}
	return int(sig), sig.String()
}
