package port

import (
	"os/exec"
)

// CommandStarter abstracts process launch so the runner can be exercised with
// a mock in tests while production code delegates to os/exec. Start must not
// wait for the process.
type CommandStarter interface {
	Start(cmd *exec.Cmd) error
}
