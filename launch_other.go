//go:build !unix

package linerun

import (
	"errors"
	"os"
)

var errNotDir = errors.New("not a directory")

func classifyLaunchErr(err error) string {
	switch {
	case err == nil:
		return ""
	case isNotFound(err):
		return ReasonNotFound
	case errors.Is(err, os.ErrPermission):
		return ReasonPermission
	default:
		return ReasonOther
	}
}

func signalStatus(*os.ProcessState) (int, string) {
	return 0, ""
}
