// Package linerun launches an external command from a shell-syntax command
// line and streams its merged stdout/stderr back one line at a time, with ANSI
// colour codes removed. A command that exits non-zero is reported only after
// every line it printed has been handed to the caller.
//
//	stream, err := linerun.Run(ctx, `git log --oneline -n 5`, linerun.WithDir(repo))
//	if err != nil {
//		return err
//	}
//	for line, err := range stream.Lines() {
//		if err != nil {
//			return err
//		}
//		fmt.Println(line)
//	}
//
// The child process is never killed on the caller's behalf. Abandoning a
// Stream, cancelling ctx or using WithNoWait all leave it running.
package linerun

import (
	"context"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/sa6mwa/linerun/adapters/commandrunner"
	"github.com/sa6mwa/linerun/port"
)

// DefaultDir is the working directory used when WithDir is not given.
var DefaultDir = "/home/phablet"

type options struct {
	dir         string
	env         []string
	noWait      bool
	maxLineSize int
	log         *zap.Logger
	starter     port.CommandStarter
}

// Option configures Run and Output.
type Option func(*options)

// WithDir sets the child's working directory.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithEnv replaces the child's environment. A nil env inherits the current
// process environment.
func WithEnv(env []string) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithFireAndForget starts the process and returns without reading its output
// or checking its exit status when enabled.
func WithFireAndForget(enabled bool) Option {
	return func(o *options) {
		o.noWait = enabled
	}
}

// WithNoWait is shorthand for WithFireAndForget(true).
func WithNoWait() Option {
	return WithFireAndForget(true)
}

// WithMaxLineSize bounds the length of a single output line in bytes. A line
// longer than n ends the stream with ErrLineTooLong. Lines are unbounded by
// default.
func WithMaxLineSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineSize = n
		}
	}
}

// WithLogger sets the logger used for launch and exit diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithStarter replaces the component that launches the process.
func WithStarter(starter port.CommandStarter) Option {
	return func(o *options) {
		if starter != nil {
			o.starter = starter
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		dir:     DefaultDir,
		log:     zap.NewNop(),
		starter: commandrunner.Default,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Run tokenises command, starts it and returns a Stream over its cleaned
// output lines. Parse failures (ErrParse) and launch failures (ErrLaunch) are
// returned here, before any output is read. A non-zero exit is reported by the
// Stream once all output has been consumed.
//
// ctx supplies the execution policy (see WithPolicy). It does not bound the
// lifetime of the child process.
func Run(ctx context.Context, command string, opts ...Option) (*Stream, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := newOptions(opts)
	args, err := Split(command)
	if err != nil {
		return nil, err
	}
	if err := checkDir(o.dir); err != nil {
		return nil, newLaunchError(command, args[0], o.dir, ReasonDirectory, err)
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = o.dir
	cmd.Env = o.env
	if err := CheckPolicy(ctx, args[0], cmd.Path); err != nil {
		o.log.Debug("command denied", zap.String("command", command), zap.String("path", cmd.Path))
		return nil, newLaunchError(command, cmd.Path, o.dir, ReasonDenied, err)
	}
	if o.noWait {
		return startDetached(cmd, command, o)
	}
	return startStream(cmd, command, o)
}

// startDetached launches cmd with its output discarded and reaps it in the
// background so it does not linger as a zombie.
func startDetached(cmd *exec.Cmd, command string, o *options) (*Stream, error) {
	if err := o.starter.Start(cmd); err != nil {
		return nil, newLaunchError(command, cmd.Path, o.dir, "", err)
	}
	s := &Stream{command: command, cmd: cmd, log: o.log, done: true}
	o.log.Debug("command started without waiting",
		zap.String("command", command),
		zap.String("dir", o.dir),
		zap.Int("pid", s.Pid()))
	go s.reap()
	return s, nil
}

func startStream(cmd *exec.Cmd, command string, o *options) (*Stream, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, newLaunchError(command, cmd.Path, o.dir, "", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := o.starter.Start(cmd); err != nil {
		pr.Close()
		pw.Close()
		return nil, newLaunchError(command, cmd.Path, o.dir, "", err)
	}
	// The child holds its own copy of the write end; closing ours lets the
	// reader see EOF once the child (and any grandchildren) exit.
	pw.Close()
	s := newStream(command, cmd, pr, o.maxLineSize, o.log)
	o.log.Debug("command started",
		zap.String("command", command),
		zap.String("dir", o.dir),
		zap.Int("pid", s.Pid()))
	return s, nil
}

// Output runs command and collects every cleaned line. When the process exits
// non-zero the lines read so far are returned together with the
// *ProcessFailedError. With WithNoWait it returns no lines and no error.
func Output(ctx context.Context, command string, opts ...Option) ([]string, error) {
	s, err := Run(ctx, command, opts...)
	if err != nil {
		return nil, err
	}
	res := Collect(s)
	return res.Lines, res.Error
}
