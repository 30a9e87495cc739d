package linerun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Verdict is the outcome of a policy check.
type Verdict int

const (
	ALLOW Verdict = iota
	DENY
)

// Executable identifies one or more executables in a policy rule. Accepted
// forms are string, []string, fmt.Stringer and io.Reader; strings and readers
// may hold several newline-separated entries with #-comments.
type Executable any

// ErrDenied matches every *PolicyError with errors.Is.
var ErrDenied = errors.New("linerun: execution denied by policy")

// PolicyError reports an executable refused by the context policy.
type PolicyError struct {
	Verdict    Verdict
	Executable string
}

func (e *PolicyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("linerun: %s executable %s", e.Verdict.String(), e.Executable)
}

func (e *PolicyError) Is(target error) bool {
	return target == ErrDenied
}

func (v Verdict) String() string {
	switch v {
	case ALLOW:
		return "allow"
	case DENY:
		return "deny"
	default:
		return fmt.Sprintf("verdict(%d)", v)
	}
}

type policyKey struct{}

type executionPolicy struct {
	defaultVerdict Verdict
	allow          map[string]struct{}
	deny           map[string]struct{}
}

func newExecutionPolicy() *executionPolicy {
	return &executionPolicy{
		defaultVerdict: ALLOW,
		allow:          make(map[string]struct{}),
		deny:           make(map[string]struct{}),
	}
}

func (p *executionPolicy) clone() *executionPolicy {
	if p == nil {
		return newExecutionPolicy()
	}
	c := &executionPolicy{
		defaultVerdict: p.defaultVerdict,
		allow:          make(map[string]struct{}, len(p.allow)),
		deny:           make(map[string]struct{}, len(p.deny)),
	}
	for k := range p.allow {
		c.allow[k] = struct{}{}
	}
	for k := range p.deny {
		c.deny[k] = struct{}{}
	}
	return c
}

func policyFromContext(ctx context.Context) *executionPolicy {
	if ctx == nil {
		return nil
	}
	if existing, ok := ctx.Value(policyKey{}).(*executionPolicy); ok {
		return existing
	}
	return nil
}

// WithPolicy returns a derived context that sets the default verdict consulted
// when no explicit allow/deny rule matches an executable.
//
//	ctx := linerun.WithPolicy(context.Background(), linerun.DENY)
//	ctx = linerun.WithRule(ctx, linerun.ALLOW, "git", "/usr/bin/make")
//	stream, err := linerun.Run(ctx, "git status")
func WithPolicy(ctx context.Context, verdict Verdict) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	policy := policyFromContext(ctx).clone()
	policy.defaultVerdict = verdict
	return context.WithValue(ctx, policyKey{}, policy)
}

// WithRule returns a derived context containing explicit allow/deny entries.
// An entry containing a slash is matched against the resolved executable
// path, anything else against the base name of the first command word.
// WithRule must succeed - invalid input causes a panic.
func WithRule(ctx context.Context, rule Verdict, executables ...Executable) context.Context {
	ctx, err := WithRuleCatchError(ctx, rule, executables...)
	if err != nil {
		panic(err)
	}
	return ctx
}

// WithRuleCatchError mirrors WithRule but returns an error instead of panicking
// when an entry has an unsupported type or an unsupported verdict is supplied.
func WithRuleCatchError(ctx context.Context, rule Verdict, executables ...Executable) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(executables) == 0 {
		return ctx, nil
	}
	if rule != ALLOW && rule != DENY {
		return ctx, fmt.Errorf("unsupported verdict %d", rule)
	}
	names, err := collectExecutables(executables...)
	if err != nil {
		return ctx, err
	}
	policy := policyFromContext(ctx).clone()
	for _, name := range names {
		if rule == ALLOW {
			policy.allow[name] = struct{}{}
			delete(policy.deny, name)
		} else {
			policy.deny[name] = struct{}{}
			delete(policy.allow, name)
		}
	}
	return context.WithValue(ctx, policyKey{}, policy), nil
}

func collectExecutables(values ...Executable) ([]string, error) {
	var result []string
	for _, v := range values {
		if v == nil {
			continue
		}
		switch e := v.(type) {
		case string:
			names, err := executablesFromReader(strings.NewReader(e))
			if err != nil {
				return nil, err
			}
			result = append(result, names...)
		case []string:
			for _, s := range e {
				if s = strings.TrimSpace(s); s != "" {
					result = append(result, s)
				}
			}
		case fmt.Stringer:
			names, err := executablesFromReader(strings.NewReader(e.String()))
			if err != nil {
				return nil, err
			}
			result = append(result, names...)
		case io.Reader:
			names, err := executablesFromReader(e)
			if err != nil {
				return nil, err
			}
			result = append(result, names...)
		default:
			return nil, fmt.Errorf("unsupported executable type %T", v)
		}
	}
	return result, nil
}

func executablesFromReader(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var names []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// CheckPolicy inspects the context policy and returns a *PolicyError matching
// ErrDenied if the executable named by argv0 (resolved to path) is not allowed
// to run.
func CheckPolicy(ctx context.Context, argv0, path string) error {
	policy := policyFromContext(ctx)
	if policy == nil {
		return nil
	}
	if policy.evaluate(argv0, path) == DENY {
		return &PolicyError{Verdict: DENY, Executable: argv0}
	}
	return nil
}

func (p *executionPolicy) evaluate(argv0, path string) Verdict {
	if p == nil {
		return ALLOW
	}
	keys := []string{filepath.Base(argv0)}
	if strings.ContainsRune(argv0, '/') {
		keys = append(keys, argv0)
	}
	if path != "" && path != argv0 {
		keys = append(keys, path)
	}
	for _, k := range keys {
		if _, denied := p.deny[k]; denied {
			return DENY
		}
	}
	for _, k := range keys {
		if _, allowed := p.allow[k]; allowed {
			return ALLOW
		}
	}
	return p.defaultVerdict
}
