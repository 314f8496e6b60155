package spec

import (
	"time"
)

const (
	// DefaultThreads is the worker pool size when a case does not ask for more
	DefaultThreads = 1
	// DefaultInvocations is the number of times a case body runs
	DefaultInvocations = 1
	// DefaultTimeout bounds a case's whole invocation batch
	DefaultTimeout = time.Hour
)

// Action is a case body. Any returned error is reported as a test
// failure for the owning case.
type Action func() error

// Config holds per-case execution parameters. It is immutable once
// attached to a Case.
type Config struct {
	Tags        []string
	Threads     int
	Invocations int
	Timeout     time.Duration
}

// NewConfig returns a Config with defaults applied
func NewConfig() Config {
	return Config{
		Threads:     DefaultThreads,
		Invocations: DefaultInvocations,
		Timeout:     DefaultTimeout,
	}
}

// Normalize clamps the config to its invariants: at least one thread,
// at least one invocation, a positive timeout.
func (c Config) Normalize() Config {
	if c.Threads < 1 {
		c.Threads = DefaultThreads
	}
	if c.Invocations < 1 {
		c.Invocations = DefaultInvocations
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Case is a single named unit of test work bound to a config and a
// zero-argument action. Cases are created during spec construction and
// never mutated afterward.
type Case struct {
	Name   string
	Suite  *Suite // back-reference to the owning suite, non-owning
	Config Config
	Active bool
	Action Action
}

// Suite is a named grouping of cases and nested suites
type Suite struct {
	Name   string
	Suites []*Suite
	Cases  []*Case
}

// NewSuite creates an empty suite. The root suite's name is the spec's
// name.
func NewSuite(name string) *Suite {
	return &Suite{Name: name}
}

// AddCase appends a case to this suite and wires its back-reference.
// The config is normalized so threads and invocations are always >= 1.
func (s *Suite) AddCase(name string, cfg Config, active bool, action Action) *Case {
	c := &Case{
		Name:   name,
		Suite:  s,
		Config: cfg.Normalize(),
		Active: active,
		Action: action,
	}
	s.Cases = append(s.Cases, c)
	return c
}

// AddSuite appends a nested suite
func (s *Suite) AddSuite(name string) *Suite {
	child := NewSuite(name)
	s.Suites = append(s.Suites, child)
	return child
}

// Flatten returns the suite's cases in execution order: this suite's
// own cases first, then the flattened cases of each nested suite, in
// declaration order. Pure and stable across repeated calls on the same
// tree.
func Flatten(s *Suite) []*Case {
	if s == nil {
		return nil
	}
	cases := make([]*Case, 0, len(s.Cases))
	cases = append(cases, s.Cases...)
	for _, nested := range s.Suites {
		cases = append(cases, Flatten(nested)...)
	}
	return cases
}

// Definition is the construction collaborator: it hands the execution
// core a finished suite tree. The core never builds trees itself.
type Definition interface {
	Suite() *Suite
}
