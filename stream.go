package linerun

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"
	"os/exec"

	"go.uber.org/zap"
)

// Stream is a lazy, single-pass sequence of cleaned output lines from a
// running command. It is not safe for concurrent use.
type Stream struct {
	command string
	cmd     *exec.Cmd
	r       io.ReadCloser
	lines   *lineReader
	log     *zap.Logger

	line       string
	err        error
	done       bool
	errYielded bool
}

func newStream(command string, cmd *exec.Cmd, r io.ReadCloser, maxLineSize int, log *zap.Logger) *Stream {
	return &Stream{
		command: command,
		cmd:     cmd,
		r:       r,
		lines:   newLineReader(r, maxLineSize),
		log:     log,
	}
}

// Command returns the command line the stream was started from.
func (s *Stream) Command() string {
	return s.command
}

// Pid returns the process id of the child, or 0 if it was never started.
func (s *Stream) Pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Next advances to the next line, blocking until it is available. It returns
// false when output is exhausted, after which Err reports how the process
// ended.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	line, err := s.lines.next()
	if err == nil {
		s.line = StripColor(string(line))
		return true
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	s.finish(err)
	return false
}

// Text returns the line produced by the most recent call to Next.
func (s *Stream) Text() string {
	return s.line
}

// Err returns the error that ended the stream: a *ProcessFailedError for a
// non-zero exit, a read error, or nil.
func (s *Stream) Err() error {
	return s.err
}

// Lines returns the remaining lines as a range-over-func sequence. A terminal
// error is yielded once, as the final element, with an empty line.
func (s *Stream) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for s.Next() {
			if !yield(s.Text(), nil) {
				return
			}
		}
		if s.err != nil && !s.errYielded {
			s.errYielded = true
			yield("", s.err)
		}
	}
}

// Close releases the read side of the output pipe without waiting for or
// signalling the child. Lines not yet read are lost.
func (s *Stream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.line = ""
	err := s.r.Close()
	go s.reap()
	return err
}

func (s *Stream) finish(readErr error) {
	s.done = true
	s.line = ""
	s.r.Close()
	if readErr != nil {
		// Only reachable with WithMaxLineSize or a broken pipe. The child may
		// still be writing; do not block on it.
		s.err = readErr
		go s.reap()
		return
	}
	s.err = s.wait()
}

func (s *Stream) wait() error {
	err := s.cmd.Wait()
	code := exitCodeFrom(err, s.cmd.ProcessState)
	signum, signal := signalStatus(s.cmd.ProcessState)
	if signum > 0 {
		code = -signum
	}
	s.log.Debug("command exited",
		zap.String("command", s.command),
		zap.Int("pid", s.Pid()),
		zap.Int("exit_code", code))
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ProcessFailedError{
			ExitCode: code,
			Command:  s.command,
			Signal:   signal,
		}
	}
	return err
}

// reap collects the exit status of a child nobody is waiting for.
func (s *Stream) reap() {
	err := s.cmd.Wait()
	s.log.Debug("command reaped",
		zap.String("command", s.command),
		zap.Int("pid", s.Pid()),
		zap.Int("exit_code", exitCodeFrom(err, s.cmd.ProcessState)),
		zap.Error(err))
}

// ErrLineTooLong ends a stream whose output exceeds the WithMaxLineSize bound.
var ErrLineTooLong = errors.New("linerun: output line exceeds maximum size")

// lineReader splits a byte stream at "\n", "\r\n" or a lone "\r" and drops
// the terminator. Lines are unbounded unless max is positive. It returns
// whatever is buffered as soon as a terminator arrives, without waiting to
// fill its buffer.
type lineReader struct {
	br     *bufio.Reader
	max    int
	buf    []byte
	skipLF bool
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{br: bufio.NewReader(r), max: max}
}

// next returns the next line. The slice is only valid until the following
// call. io.EOF is returned once input is exhausted.
func (lr *lineReader) next() ([]byte, error) {
	lr.buf = lr.buf[:0]
	for {
		if lr.br.Buffered() == 0 {
			if _, err := lr.br.Peek(1); err != nil {
				if len(lr.buf) > 0 && errors.Is(err, io.EOF) {
					return lr.buf, nil
				}
				return nil, err
			}
		}
		chunk, _ := lr.br.Peek(lr.br.Buffered())
		if lr.skipLF {
			lr.skipLF = false
			if chunk[0] == '\n' {
				lr.br.Discard(1)
				continue
			}
		}
		i := bytes.IndexAny(chunk, "\r\n")
		if i < 0 {
			lr.buf = append(lr.buf, chunk...)
			lr.br.Discard(len(chunk))
			if lr.tooLong() {
				return nil, ErrLineTooLong
			}
			continue
		}
		lr.buf = append(lr.buf, chunk[:i]...)
		lr.skipLF = chunk[i] == '\r'
		lr.br.Discard(i + 1)
		if lr.tooLong() {
			return nil, ErrLineTooLong
		}
		return lr.buf, nil
	}
}

func (lr *lineReader) tooLong() bool {
	return lr.max > 0 && len(lr.buf) > lr.max
}
