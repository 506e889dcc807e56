package reporter

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/CyberHorizonLtd/xmltrace/internal/stats"
)

// -------- JSON --------

func WriteJSON(w io.Writer, s *stats.RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// -------- JUnit XML --------

// Minimal JUnit schema: testsuite -> testcase (+failure/error/skipped)
type junitTestsuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Errors   int             `xml:"errors,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Testcase []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Classname string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitProblem `xml:"failure,omitempty"`
	Error     *junitProblem `xml:"error,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

func WriteJUnit(w io.Writer, suiteName string, s *stats.RunSummary) error {
	cases := make([]junitTestcase, 0, len(s.Outcomes))

	for _, o := range s.Outcomes {
		tc := junitTestcase{
			Classname: suiteName,
			Name:      o.Name,
			Time:      fmt.Sprintf("%.3f", o.DurationMs/1000.0),
		}
		switch o.Verdict {
		case stats.Fail:
			reasons := failReasons(o)
			msg := "validation failed"
			if len(reasons) > 0 {
				msg = reasons[0]
			}
			tc.Failure = &junitProblem{
				Message: msg,
				Type:    "ValidationMismatch",
				Text:    strings.Join(reasons, "\n"),
			}
		case stats.Error:
			tc.Error = &junitProblem{
				Message: o.Detail,
				Type:    "ExecutionError",
				Text:    o.Detail,
			}
		case stats.Skip:
			tc.Skipped = &junitSkipped{Message: o.Detail}
		}
		cases = append(cases, tc)
	}

	ts := junitTestsuite{
		Name:     suiteName,
		Tests:    s.Total,
		Failures: s.Failed,
		Errors:   s.Errored,
		Skipped:  s.Skipped,
		Time:     fmt.Sprintf("%.3f", s.DurationMs/1000.0),
		Testcase: cases,
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(ts)
}

func failReasons(o stats.Outcome) []string {
	var out []string
	for _, c := range o.Checks {
		if !c.Passed {
			out = append(out, c.Reason)
		}
	}
	return out
}
