package runner

// Hooks are the overridable lifecycle extension points of a spec.
// spec.Base provides no-op implementations so authors only override
// what they need.
type Hooks interface {
	BeforeAll() error
	BeforeEach() error
	AfterEach() error
	AfterAll() error
}

// resourceCloser is implemented by specs that registered closeable
// resources (spec.Base does). Closing is triggered only by the
// after-all sequence.
type resourceCloser interface {
	CloseResources() error
}

type nopHooks struct{}

func (nopHooks) BeforeAll() error  { return nil }
func (nopHooks) BeforeEach() error { return nil }
func (nopHooks) AfterEach() error  { return nil }
func (nopHooks) AfterAll() error   { return nil }

// hooksOf returns the instance's hooks, or no-ops when the spec does
// not declare any
func hooksOf(inst any) Hooks {
	if h, ok := inst.(Hooks); ok {
		return h
	}
	return nopHooks{}
}
