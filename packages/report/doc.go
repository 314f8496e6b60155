// Package report defines the event stream between the execution core
// and whatever consumes test results: a small Reporter interface, a
// thread-safe Recorder that aggregates events into a run summary, and
// console/JSON/JUnit presentation over that summary.
package report
