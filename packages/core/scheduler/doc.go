// Package scheduler is the execution core: it runs a single case's
// action N times concurrently on a bounded worker pool, enforces the
// case's batch timeout, and emits started/failure/finished events to
// a reporter.
//
// Event ordering: Started strictly precedes invocation dispatch.
// Finished is emitted once all invocations have been dispatched, not
// once they have completed, so failure events for a case may arrive
// after its Finished event. On timeout the scheduler stops waiting and
// emits one timeout-kind failure; running invocations are abandoned,
// never force-killed.
package scheduler
