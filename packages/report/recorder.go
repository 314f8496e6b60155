package report

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// timeouter matches timeout-kind failures without depending on the
// scheduler package
type timeouter interface {
	Timeout() bool
}

// CaseResult is the aggregated outcome of one case
type CaseResult struct {
	Desc     Description
	Errors   []string
	Timeout  bool
	Duration time.Duration
}

// Passed reports whether the case saw no failure events
func (r *CaseResult) Passed() bool {
	return len(r.Errors) == 0
}

// RunSummary is the aggregated outcome of a whole run
type RunSummary struct {
	RunID    string
	Total    int
	Passed   int
	Failed   int
	Duration time.Duration
	Results  []*CaseResult
}

// Recorder is a Reporter that aggregates the event stream into a
// RunSummary. It is safe for concurrent use and tolerates failure
// events arriving after the finished event for a case.
type Recorder struct {
	mu      sync.Mutex
	runID   string
	start   time.Time
	started map[Description]time.Time
	order   []Description
	results map[Description]*CaseResult
}

// NewRecorder creates an empty recorder with a fresh run ID
func NewRecorder() *Recorder {
	return &Recorder{
		runID:   uuid.NewString(),
		start:   time.Now(),
		started: make(map[Description]time.Time),
		results: make(map[Description]*CaseResult),
	}
}

// RunID returns the unique identifier of this run
func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) Started(desc Description) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.results[desc]; !ok {
		r.order = append(r.order, desc)
		r.results[desc] = &CaseResult{Desc: desc}
	}
	r.started[desc] = time.Now()
}

func (r *Recorder) Failure(desc Description, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.resultLocked(desc)
	result.Errors = append(result.Errors, err.Error())
	var te timeouter
	if errors.As(err, &te) && te.Timeout() {
		result.Timeout = true
	}
}

func (r *Recorder) Finished(desc Description) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.resultLocked(desc)
	if startedAt, ok := r.started[desc]; ok {
		result.Duration = time.Since(startedAt)
	}
}

// resultLocked returns the result for desc, creating it if events
// arrived without a preceding Started. Callers must hold mu.
func (r *Recorder) resultLocked(desc Description) *CaseResult {
	result, ok := r.results[desc]
	if !ok {
		result = &CaseResult{Desc: desc}
		r.order = append(r.order, desc)
		r.results[desc] = result
	}
	return result
}

// Summary snapshots the recorded events into a RunSummary. Cases keep
// their started order.
func (r *Recorder) Summary() *RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := &RunSummary{
		RunID:    r.runID,
		Duration: time.Since(r.start),
	}
	for _, desc := range r.order {
		result := r.results[desc]
		copied := *result
		copied.Errors = append([]string(nil), result.Errors...)
		summary.Results = append(summary.Results, &copied)
		summary.Total++
		if copied.Passed() {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}
