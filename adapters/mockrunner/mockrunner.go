package mockrunner

import (
	"os/exec"
	"slices"
	"sync"

	"github.com/sa6mwa/linerun/port"
)

// Behavior represents a single launch path for the mock runner.
type Behavior func(cmd *exec.Cmd) error

// Runner is a thread-safe mock implementation of port.CommandStarter.
type Runner struct {
	mu        sync.Mutex
	behaviors []Behavior
	Calls     int
	Args      [][]string
	Dirs      []string
}

var _ port.CommandStarter = (*Runner)(nil)

// New constructs a Runner that will invoke behaviors sequentially for each call.
func New(behaviors ...Behavior) *Runner {
	return &Runner{behaviors: slices.Clone(behaviors)}
}

// Start records the call metadata and dispatches to the next behavior. With no
// behavior left it starts the command for real.
func (r *Runner) Start(cmd *exec.Cmd) error {
	r.mu.Lock()
	r.Calls++
	r.Args = append(r.Args, slices.Clone(cmd.Args))
	r.Dirs = append(r.Dirs, cmd.Dir)
	if len(r.behaviors) == 0 {
		r.mu.Unlock()
		return cmd.Start()
	}
	behavior := r.behaviors[0]
	r.behaviors = r.behaviors[1:]
	r.mu.Unlock()
	return behavior(cmd)
}

// Remaining returns the number of queued behaviors that have not yet been consumed.
func (r *Runner) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.behaviors)
}
