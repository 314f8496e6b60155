package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName   xml.Name         `xml:"testsuites"`
	Name      string           `xml:"name,attr,omitempty"`
	Tests     int              `xml:"tests,attr"`
	Failures  int              `xml:"failures,attr"`
	Time      float64          `xml:"time,attr"`
	Timestamp string           `xml:"timestamp,attr,omitempty"`
	Suites    []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite groups the cases of one suite label
type JUnitTestSuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     float64         `xml:"time,attr"`
	Cases    []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a single case
type JUnitTestCase struct {
	XMLName   xml.Name       `xml:"testcase"`
	Name      string         `xml:"name,attr"`
	ClassName string         `xml:"classname,attr"`
	Time      float64        `xml:"time,attr"`
	Failures  []JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure represents one failure event
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// WriteJUnit renders a run summary as JUnit XML. Cases are grouped by
// their group label; every recorded failure event becomes its own
// failure element, so a multi-invocation case can carry several.
func WriteJUnit(w io.Writer, summary *RunSummary) error {
	root := JUnitTestSuites{
		Name:      "runspec",
		Timestamp: time.Now().Format(time.RFC3339),
		Time:      summary.Duration.Seconds(),
	}

	byGroup := make(map[string]*JUnitTestSuite)
	var groupOrder []string
	for _, result := range summary.Results {
		group := result.Desc.Group
		suite, ok := byGroup[group]
		if !ok {
			suite = &JUnitTestSuite{Name: group}
			byGroup[group] = suite
			groupOrder = append(groupOrder, group)
		}

		tc := JUnitTestCase{
			Name:      result.Desc.Case,
			ClassName: group,
			Time:      result.Duration.Seconds(),
		}
		for _, msg := range result.Errors {
			kind := "failure"
			if result.Timeout {
				kind = "timeout"
			}
			tc.Failures = append(tc.Failures, JUnitFailure{
				Message: msg,
				Type:    kind,
				Content: msg,
			})
		}

		suite.Cases = append(suite.Cases, tc)
		suite.Tests++
		suite.Time += result.Duration.Seconds()
		if !result.Passed() {
			suite.Failures++
		}
	}

	for _, group := range groupOrder {
		suite := byGroup[group]
		root.Suites = append(root.Suites, *suite)
		root.Tests += suite.Tests
		root.Failures += suite.Failures
	}

	if _, err := fmt.Fprint(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encoding junit xml: %w", err)
	}
	_, err := fmt.Fprintln(w)
	return err
}
