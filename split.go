package linerun

import (
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// Split tokenises command using POSIX shell word-splitting rules. Single and
// double quotes group words and backslash escapes the next character; no
// variable, glob or tilde expansion is performed. Errors belong to ErrParse.
func Split(command string) ([]string, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, ErrParse.Wrap(err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}
	return words, nil
}
