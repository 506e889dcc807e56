// Package stats accumulates per-test outcomes into a run summary.
package stats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Verdict is the closed classification of one test-case execution.
type Verdict int

const (
	Pass Verdict = iota
	Fail
	Error
	Skip
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Error:
		return "error"
	case Skip:
		return "skip"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Verdict) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "pass":
		*v = Pass
	case "fail":
		*v = Fail
	case "error":
		*v = Error
	case "skip":
		*v = Skip
	default:
		return fmt.Errorf("unknown verdict %q", s)
	}
	return nil
}

// CheckResult is one executed validation: status, structural or textual.
type CheckResult struct {
	Kind   string `json:"kind"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Outcome is the terminal, immutable record for one test-case execution.
type Outcome struct {
	Name       string        `json:"name"`
	Verdict    Verdict       `json:"verdict"`
	DurationMs float64       `json:"duration_ms"`
	Checks     []CheckResult `json:"checks,omitempty"`
	Detail     string        `json:"detail,omitempty"` // transport/config error, or skip reason
	Timestamp  time.Time     `json:"timestamp"`

	Method      string              `json:"method,omitempty"`
	URL         string              `json:"url,omitempty"`
	ReqHeaders  map[string]string   `json:"req_headers,omitempty"`
	ReqBody     string              `json:"req_body,omitempty"`
	StatusCode  int                 `json:"status_code,omitempty"`
	RespHeaders map[string][]string `json:"resp_headers,omitempty"`
	RespBody    string              `json:"resp_body,omitempty"`
}

// RunSummary is the finalized aggregate for one engine invocation.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Suite      string    `json:"suite,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Errored    int       `json:"errored"`
	Skipped    int       `json:"skipped"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Succeeded reports whether the run as a whole should be considered
// successful: no failed and no errored cases.
func (s *RunSummary) Succeeded() bool {
	return s.Failed == 0 && s.Errored == 0
}

// Collector accepts outcomes in execution order and finalizes a RunSummary.
// A run with zero outcomes yields a summary with all counts at zero.
type Collector struct {
	runID    string
	suite    string
	started  time.Time
	outcomes []Outcome
}

func NewCollector(suite string) *Collector {
	return &Collector{
		runID:   uuid.NewString(),
		suite:   suite,
		started: time.Now(),
	}
}

func (c *Collector) Record(o Outcome) {
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
	c.outcomes = append(c.outcomes, o)
}

func (c *Collector) Summary() *RunSummary {
	s := &RunSummary{
		RunID:      c.runID,
		Suite:      c.suite,
		StartedAt:  c.started,
		DurationMs: float64(time.Since(c.started).Milliseconds()),
		Total:      len(c.outcomes),
		Outcomes:   c.outcomes,
	}
	for _, o := range c.outcomes {
		switch o.Verdict {
		case Pass:
			s.Passed++
		case Fail:
			s.Failed++
		case Error:
			s.Errored++
		case Skip:
			s.Skipped++
		}
	}
	return s
}
