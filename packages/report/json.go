package report

import (
	"encoding/json"
	"io"
	"time"
)

// JSONOutput is the complete JSON output structure
type JSONOutput struct {
	RunID    string     `json:"runId"`
	Summary  JSONCounts `json:"summary"`
	Cases    []JSONCase `json:"cases"`
	Duration float64    `json:"duration"`
	Time     string     `json:"time"`
}

// JSONCounts holds the run totals
type JSONCounts struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// JSONCase is a single case result
type JSONCase struct {
	Group    string   `json:"group"`
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Timeout  bool     `json:"timeout,omitempty"`
	Duration float64  `json:"duration"`
	Errors   []string `json:"errors,omitempty"`
}

// WriteJSON renders a run summary as indented JSON
func WriteJSON(w io.Writer, summary *RunSummary) error {
	out := JSONOutput{
		RunID: summary.RunID,
		Summary: JSONCounts{
			Total:  summary.Total,
			Passed: summary.Passed,
			Failed: summary.Failed,
		},
		Duration: summary.Duration.Seconds(),
		Time:     time.Now().Format(time.RFC3339),
	}
	for _, result := range summary.Results {
		out.Cases = append(out.Cases, JSONCase{
			Group:    result.Desc.Group,
			Name:     result.Desc.Case,
			Passed:   result.Passed(),
			Timeout:  result.Timeout,
			Duration: result.Duration.Seconds(),
			Errors:   result.Errors,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
