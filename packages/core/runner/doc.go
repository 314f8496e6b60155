// Package runner sequences a whole run: it flattens and filters the
// suite tree, wraps each surviving case with lifecycle hooks, and
// hands the case to the scheduler. Two isolation strategies are
// supported: one shared instance for the whole run, or a fresh
// instance constructed per case for full per-test isolation.
package runner
