// Package spec defines the suite tree that runspec executes: suites,
// cases, per-case configuration, tree traversal and tag filtering.
// Trees are built incrementally during spec construction and treated
// as read-only once execution starts.
package spec
