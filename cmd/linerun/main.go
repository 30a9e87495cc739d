// Command linerun runs a command line and prints its merged output with ANSI
// colour codes removed.
//
//	linerun --dir ~/src/app -- make test
//	linerun 'git log --color=always -n 3'
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sa6mwa/linerun"
)

type config struct {
	dir     string
	noWait  bool
	verbose bool
	allow   []string
	deny    []string
}

// exitError carries the status the process should exit with.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cfg := &config{}
	home, err := os.UserHomeDir()
	if err != nil {
		home = linerun.DefaultDir
	}
	cmd := &cobra.Command{
		Use:           "linerun [flags] [--] COMMAND [ARG...]",
		Short:         "Run a command and print its output without colour codes",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cfg.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return run(cmd.Context(), stdout, log, cfg, commandLine(args))
		},
	}
	// Flags after the first command word belong to the command.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&cfg.dir, "dir", "C", home, "working directory for the command")
	cmd.Flags().BoolVar(&cfg.noWait, "no-wait", false, "start the command and return without reading its output")
	cmd.Flags().BoolVarP(&cfg.verbose, "verbose", "v", false, "log launch and exit details to stderr")
	cmd.Flags().StringSliceVar(&cfg.allow, "allow", nil, "only allow these executables (name or path)")
	cmd.Flags().StringSliceVar(&cfg.deny, "deny", nil, "never run these executables (name or path)")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// commandLine turns positional arguments into a single shell-syntax string. A
// single argument is taken verbatim so quoting inside it is honoured.
func commandLine(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return shellquote.Join(args...)
}

func run(ctx context.Context, stdout io.Writer, log *zap.Logger, cfg *config, command string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(cfg.allow) > 0 {
		ctx = linerun.WithPolicy(ctx, linerun.DENY)
		ctx = linerun.WithRule(ctx, linerun.ALLOW, cfg.allow)
	}
	if len(cfg.deny) > 0 {
		ctx = linerun.WithRule(ctx, linerun.DENY, cfg.deny)
	}
	stream, err := linerun.Run(ctx, command,
		linerun.WithDir(cfg.dir),
		linerun.WithFireAndForget(cfg.noWait),
		linerun.WithLogger(log))
	if err != nil {
		log.Error("unable to run command", zap.String("command", command), zap.Error(err))
		if linerun.ErrParse.Has(err) {
			return &exitError{code: 2, err: err}
		}
		return &exitError{code: 1, err: err}
	}
	if cfg.noWait {
		log.Info("command started", zap.String("command", command), zap.Int("pid", stream.Pid()))
		return nil
	}
	for line, err := range stream.Lines() {
		if err != nil {
			return failure(log, command, err)
		}
		if _, werr := fmt.Fprintln(stdout, line); werr != nil {
			return werr
		}
	}
	return nil
}

func failure(log *zap.Logger, command string, err error) error {
	code, ok := linerun.ExitCode(err)
	if !ok || code <= 0 {
		code = 1
	}
	log.Warn("command failed", zap.String("command", command), zap.Int("exit_code", code), zap.Error(err))
	return &exitError{code: code, err: err}
}
