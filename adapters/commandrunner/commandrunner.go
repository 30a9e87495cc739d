package commandrunner

import (
	"os/exec"

	"github.com/sa6mwa/linerun/port"
)

// DefaultRunner starts commands using os/exec directly.
type DefaultRunner struct{}

var _ port.CommandStarter = DefaultRunner{}

// Start launches cmd without waiting for it.
func (DefaultRunner) Start(cmd *exec.Cmd) error {
	return cmd.Start()
}

// Default is a shared instance of DefaultRunner.
var Default port.CommandStarter = DefaultRunner{}
