package runner

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/runspec/packages/core/scheduler"
	"github.com/abdul-hamid-achik/runspec/packages/report"
	"github.com/abdul-hamid-achik/runspec/packages/spec"
)

// Isolation selects how spec instances are shared across cases
type Isolation int

const (
	// SharedInstance runs every case on one spec instance;
	// BeforeAll/AfterAll fire once for the whole run.
	SharedInstance Isolation = iota
	// InstancePerCase constructs a fresh spec instance for each case;
	// BeforeAll/AfterAll fire once per case.
	InstancePerCase
)

// ParseIsolation parses the textual isolation mode used by flags and
// suite files
func ParseIsolation(s string) (Isolation, error) {
	switch s {
	case "", "shared":
		return SharedInstance, nil
	case "fresh", "per-case":
		return InstancePerCase, nil
	default:
		return SharedInstance, fmt.Errorf("unknown isolation mode %q (want shared or fresh)", s)
	}
}

// Factory constructs a spec instance with its suite tree fully built.
// Under InstancePerCase it is called once per case and must produce a
// structurally identical tree every time, since cases are selected by
// flattened position.
type Factory func() (spec.Definition, error)

// Config holds run-wide settings
type Config struct {
	// Tags is the active tag set; empty runs everything
	Tags      []string
	Isolation Isolation
	Reporter  report.Reporter
	// SchedulerOptions are passed through to the execution core
	SchedulerOptions []scheduler.Option
}

// Runner executes a suite tree under an isolation strategy. Cases run
// sequentially relative to each other; concurrency lives inside each
// case's invocation batch.
type Runner struct {
	config *Config
	sched  *scheduler.Scheduler
}

// NewRunner creates a runner
func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Reporter == nil {
		cfg.Reporter = report.Discard
	}
	return &Runner{
		config: cfg,
		sched:  scheduler.New(cfg.SchedulerOptions...),
	}
}

// Run executes every active, tag-included case produced by the
// factory. The returned error covers run-level faults (construction,
// hooks, resource closing); individual case failures flow through the
// reporter only.
func (r *Runner) Run(ctx context.Context, factory Factory) error {
	if r.config.Isolation == InstancePerCase {
		return r.runPerCase(ctx, factory)
	}
	return r.runShared(ctx, factory)
}

func (r *Runner) runShared(ctx context.Context, factory Factory) error {
	inst, err := factory()
	if err != nil {
		return fmt.Errorf("constructing spec: %w", err)
	}
	hooks := hooksOf(inst)

	runErr := func() error {
		if err := hooks.BeforeAll(); err != nil {
			return fmt.Errorf("before all: %w", err)
		}
		for _, c := range spec.Flatten(inst.Suite()) {
			if !c.Active || !spec.Included(c, r.config.Tags) {
				continue
			}
			if err := hooks.BeforeEach(); err != nil {
				return fmt.Errorf("before each: %w", err)
			}
			r.sched.RunCase(ctx, c, r.config.Reporter)
			if err := hooks.AfterEach(); err != nil {
				return fmt.Errorf("after each: %w", err)
			}
		}
		return nil
	}()

	// The after-all sequence runs even when a hook failed mid-run
	finErr := r.finishInstance(inst, hooks)
	if runErr != nil {
		return runErr
	}
	return finErr
}

func (r *Runner) runPerCase(ctx context.Context, factory Factory) error {
	ref, err := factory()
	if err != nil {
		return fmt.Errorf("constructing reference spec: %w", err)
	}
	total := len(spec.Flatten(ref.Suite()))

	for k := 0; k < total; k++ {
		// Construction failure is fatal: position-indexed lookups on
		// later instances would be meaningless.
		inst, err := factory()
		if err != nil {
			return fmt.Errorf("constructing spec for case %d: %w", k, err)
		}
		cases := spec.Flatten(inst.Suite())
		if len(cases) != total {
			return fmt.Errorf("spec construction is not deterministic: instance has %d cases, reference has %d", len(cases), total)
		}

		c := cases[k]
		// Filtered positions still construct an instance but perform
		// no hook calls or run.
		if !c.Active || !spec.Included(c, r.config.Tags) {
			continue
		}

		hooks := hooksOf(inst)
		runErr := func() error {
			if err := hooks.BeforeAll(); err != nil {
				return fmt.Errorf("before all: %w", err)
			}
			// AfterEach fires once before the run as a pre-clean, so
			// authors resetting state in AfterEach start from a clean
			// slate on the fresh instance.
			if err := hooks.AfterEach(); err != nil {
				return fmt.Errorf("after each: %w", err)
			}
			r.sched.RunCase(ctx, c, r.config.Reporter)
			if err := hooks.AfterEach(); err != nil {
				return fmt.Errorf("after each: %w", err)
			}
			return nil
		}()

		finErr := r.finishInstance(inst, hooks)
		if runErr != nil {
			return runErr
		}
		if finErr != nil {
			return finErr
		}
	}
	return nil
}

// finishInstance runs the after-all sequence: the AfterAll hook, then
// closing of auto-registered resources in reverse registration order.
// Resources are closed even when AfterAll fails; the first error wins.
func (r *Runner) finishInstance(inst spec.Definition, hooks Hooks) error {
	err := hooks.AfterAll()
	if err != nil {
		err = fmt.Errorf("after all: %w", err)
	}
	if closer, ok := inst.(resourceCloser); ok {
		if cerr := closer.CloseResources(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
