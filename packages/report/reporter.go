package report

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/runspec/packages/spec"
)

// Description identifies a case in the event stream: a stable
// (group, case) label pair.
type Description struct {
	Group string
	Case  string
}

func (d Description) String() string {
	if d.Group == "" {
		return d.Case
	}
	return d.Group + " / " + d.Case
}

// Reporter receives lifecycle events for each case. Success is
// implicit: a case with no Failure event before its run ends passed.
//
// Ordering contract: Started strictly precedes everything else for a
// description; Finished marks that all invocations were dispatched,
// not that they completed, so Failure events may still arrive after
// Finished for the same description. Failure may be called
// concurrently from invocation goroutines and implementations must be
// safe for that.
type Reporter interface {
	Started(desc Description)
	Failure(desc Description, err error)
	Finished(desc Description)
}

// Describe derives the stable description for a case: the owning
// suite's name with dot separators replaced by spaces, and the case
// name suffixed with the invocation count when it runs more than once.
func Describe(c *spec.Case) Description {
	group := ""
	if c.Suite != nil {
		group = strings.ReplaceAll(c.Suite.Name, ".", " ")
	}
	name := c.Name
	if c.Config.Invocations > 1 {
		name = fmt.Sprintf("%s (%d invocations)", name, c.Config.Invocations)
	}
	return Description{Group: group, Case: name}
}

// Multi fans events out to several reporters in order
type Multi []Reporter

func (m Multi) Started(desc Description) {
	for _, r := range m {
		r.Started(desc)
	}
}

func (m Multi) Failure(desc Description, err error) {
	for _, r := range m {
		r.Failure(desc, err)
	}
}

func (m Multi) Finished(desc Description) {
	for _, r := range m {
		r.Finished(desc)
	}
}

// Discard is a Reporter that drops every event
var Discard Reporter = discard{}

type discard struct{}

func (discard) Started(Description)        {}
func (discard) Failure(Description, error) {}
func (discard) Finished(Description)       {}
