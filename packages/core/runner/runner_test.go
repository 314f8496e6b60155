package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/abdul-hamid-achik/runspec/packages/report"
	"github.com/abdul-hamid-achik/runspec/packages/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingSpec records hook and case invocations into a shared log so
// order can be asserted across fresh instances
type trackingSpec struct {
	spec.Base
	suite *spec.Suite
	log   *[]string
}

func (s *trackingSpec) Suite() *spec.Suite { return s.suite }
func (s *trackingSpec) BeforeAll() error   { *s.log = append(*s.log, "beforeAll"); return nil }
func (s *trackingSpec) BeforeEach() error  { *s.log = append(*s.log, "beforeEach"); return nil }
func (s *trackingSpec) AfterEach() error   { *s.log = append(*s.log, "afterEach"); return nil }
func (s *trackingSpec) AfterAll() error    { *s.log = append(*s.log, "afterAll"); return nil }

// trackingFactory builds structurally identical trees on every call
func trackingFactory(log *[]string, caseTags map[string][]string, names ...string) Factory {
	return func() (spec.Definition, error) {
		s := &trackingSpec{log: log}
		s.suite = spec.NewSuite("TrackingSpec")
		for _, name := range names {
			cfg := spec.NewConfig()
			cfg.Tags = caseTags[name]
			n := name
			s.suite.AddCase(n, cfg, true, func() error {
				*s.log = append(*s.log, "run:"+n)
				return nil
			})
		}
		return s, nil
	}
}

func TestSharedInstanceHookOrder(t *testing.T) {
	var log []string
	r := NewRunner(&Config{Isolation: SharedInstance})

	err := r.Run(context.Background(), trackingFactory(&log, nil, "a", "b"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"beforeAll",
		"beforeEach", "run:a", "afterEach",
		"beforeEach", "run:b", "afterEach",
		"afterAll",
	}, log)
}

func TestSharedInstanceHooksOnceRegardlessOfCaseCount(t *testing.T) {
	var log []string
	r := NewRunner(&Config{Isolation: SharedInstance})

	err := r.Run(context.Background(), trackingFactory(&log, nil, "a", "b", "c", "d"))
	require.NoError(t, err)

	assert.Equal(t, 1, count(log, "beforeAll"))
	assert.Equal(t, 1, count(log, "afterAll"))
	assert.Equal(t, 4, count(log, "beforeEach"))
}

func TestInstancePerCaseHookOrder(t *testing.T) {
	var log []string
	r := NewRunner(&Config{Isolation: InstancePerCase})

	err := r.Run(context.Background(), trackingFactory(&log, nil, "a", "b"))
	require.NoError(t, err)

	// Per fresh instance: beforeAll, afterEach pre-clean, the run,
	// afterEach, then the full after-all sequence.
	perCase := []string{"beforeAll", "afterEach", "run:a", "afterEach", "afterAll",
		"beforeAll", "afterEach", "run:b", "afterEach", "afterAll"}
	assert.Equal(t, perCase, log)
}

func TestInstancePerCaseHooksPerCase(t *testing.T) {
	var log []string
	r := NewRunner(&Config{Isolation: InstancePerCase})

	err := r.Run(context.Background(), trackingFactory(&log, nil, "a", "b", "c"))
	require.NoError(t, err)

	assert.Equal(t, 3, count(log, "beforeAll"))
	assert.Equal(t, 3, count(log, "afterAll"))
}

func TestInstancePerCaseFilteredPositionsConstructButSkip(t *testing.T) {
	var log []string
	constructions := 0
	inner := trackingFactory(&log, map[string][]string{"b": {"slow"}}, "a", "b")
	factory := func() (spec.Definition, error) {
		constructions++
		return inner()
	}

	r := NewRunner(&Config{Isolation: InstancePerCase, Tags: []string{"fast"}})
	err := r.Run(context.Background(), factory)
	require.NoError(t, err)

	// Reference instance plus one per position, even the filtered one
	assert.Equal(t, 3, constructions)
	// Untagged "a" runs under the active filter, tagged "b" does not;
	// the filtered position triggers no hooks at all.
	assert.Equal(t, 1, count(log, "run:a"))
	assert.Equal(t, 0, count(log, "run:b"))
	assert.Equal(t, 1, count(log, "beforeAll"))
	assert.Equal(t, 1, count(log, "afterAll"))
}

func TestInstancePerCaseConstructionFailureIsFatal(t *testing.T) {
	var log []string
	calls := 0
	inner := trackingFactory(&log, nil, "a", "b")
	factory := func() (spec.Definition, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("flaky constructor")
		}
		return inner()
	}

	r := NewRunner(&Config{Isolation: InstancePerCase})
	err := r.Run(context.Background(), factory)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "flaky constructor")
	assert.Equal(t, 0, count(log, "run:a"))
}

func TestInstancePerCaseDetectsNonDeterministicTree(t *testing.T) {
	var log []string
	calls := 0
	factory := func() (spec.Definition, error) {
		calls++
		names := []string{"a", "b"}
		if calls > 1 {
			names = []string{"a"} // shrinking tree breaks position lookup
		}
		return trackingFactory(&log, nil, names...)()
	}

	r := NewRunner(&Config{Isolation: InstancePerCase})
	err := r.Run(context.Background(), factory)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not deterministic")
}

func TestSharedInstanceTagFilter(t *testing.T) {
	var log []string
	tags := map[string][]string{"a": {"fast"}, "b": {"slow"}}
	r := NewRunner(&Config{Isolation: SharedInstance, Tags: []string{"fast"}})

	err := r.Run(context.Background(), trackingFactory(&log, tags, "a", "b", "c"))
	require.NoError(t, err)

	assert.Equal(t, 1, count(log, "run:a"))
	assert.Equal(t, 0, count(log, "run:b"))
	// Untagged cases always run
	assert.Equal(t, 1, count(log, "run:c"))
}

func TestInactiveCaseSkipped(t *testing.T) {
	var ran bool
	factory := func() (spec.Definition, error) {
		s := &trackingSpec{log: &[]string{}}
		s.suite = spec.NewSuite("Spec")
		s.suite.AddCase("disabled", spec.NewConfig(), false, func() error {
			ran = true
			return nil
		})
		return s, nil
	}

	r := NewRunner(nil)
	require.NoError(t, r.Run(context.Background(), factory))
	assert.False(t, ran)
}

type orderedCloser struct {
	name   string
	order  *[]string
	err    error
	closed int
}

func (c *orderedCloser) Close() error {
	c.closed++
	*c.order = append(*c.order, c.name)
	return c.err
}

type closingSpec struct {
	spec.Base
	suite *spec.Suite
}

func (s *closingSpec) Suite() *spec.Suite { return s.suite }

func TestResourcesClosedInReverseOrder(t *testing.T) {
	var order []string
	r1 := &orderedCloser{name: "R1", order: &order}
	r2 := &orderedCloser{name: "R2", order: &order}
	r3 := &orderedCloser{name: "R3", order: &order}

	factory := func() (spec.Definition, error) {
		s := &closingSpec{suite: spec.NewSuite("Spec")}
		s.suite.AddCase("c", spec.NewConfig(), true, func() error { return nil })
		s.AutoClose(r1)
		s.AutoClose(r2)
		s.AutoClose(r3)
		return s, nil
	}

	r := NewRunner(nil)
	require.NoError(t, r.Run(context.Background(), factory))

	assert.Equal(t, []string{"R3", "R2", "R1"}, order)
	for _, c := range []*orderedCloser{r1, r2, r3} {
		assert.Equal(t, 1, c.closed, "%s must close exactly once", c.name)
	}
}

func TestResourceCloseFailureDoesNotSuppressSiblings(t *testing.T) {
	var order []string
	r1 := &orderedCloser{name: "R1", order: &order}
	r2 := &orderedCloser{name: "R2", order: &order, err: errors.New("close failed")}
	r3 := &orderedCloser{name: "R3", order: &order}

	factory := func() (spec.Definition, error) {
		s := &closingSpec{suite: spec.NewSuite("Spec")}
		s.AutoClose(r1)
		s.AutoClose(r2)
		s.AutoClose(r3)
		return s, nil
	}

	r := NewRunner(nil)
	err := r.Run(context.Background(), factory)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
	assert.Equal(t, []string{"R3", "R2", "R1"}, order)
}

func TestRunnerReportsThroughReporter(t *testing.T) {
	rec := report.NewRecorder()
	factory := func() (spec.Definition, error) {
		s := &closingSpec{suite: spec.NewSuite("Spec")}
		s.suite.AddCase("passes", spec.NewConfig(), true, func() error { return nil })
		s.suite.AddCase("fails", spec.NewConfig(), true, func() error { return errors.New("boom") })
		return s, nil
	}

	r := NewRunner(&Config{Reporter: rec})
	require.NoError(t, r.Run(context.Background(), factory))

	summary := rec.Summary()
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
}

func TestParseIsolation(t *testing.T) {
	tests := []struct {
		input   string
		want    Isolation
		wantErr bool
	}{
		{"", SharedInstance, false},
		{"shared", SharedInstance, false},
		{"fresh", InstancePerCase, false},
		{"per-case", InstancePerCase, false},
		{"bogus", SharedInstance, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			got, err := ParseIsolation(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func count(log []string, entry string) int {
	n := 0
	for _, e := range log {
		if e == entry {
			n++
		}
	}
	return n
}
