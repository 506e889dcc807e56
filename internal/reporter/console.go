package reporter

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/CyberHorizonLtd/xmltrace/internal/stats"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// PrintSummary renders the run summary on w: counts, pass rate, and the
// reason for every failed or errored case.
func PrintSummary(w io.Writer, s *stats.RunSummary) {
	fmt.Fprintf(w, "\n%s\n", bold("--- Test Summary ---"))
	fmt.Fprintf(w, "Total Tests Run: %d\n", s.Total)
	fmt.Fprintf(w, "Passed: %s\n", green(s.Passed))
	if s.Failed > 0 {
		fmt.Fprintf(w, "Failed: %s\n", red(s.Failed))
	} else {
		fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	}
	if s.Errored > 0 {
		fmt.Fprintf(w, "Errored: %s\n", yellow(s.Errored))
	} else {
		fmt.Fprintf(w, "Errored: %d\n", s.Errored)
	}
	fmt.Fprintf(w, "Skipped: %d\n", s.Skipped)

	executed := s.Total - s.Skipped
	if executed > 0 {
		fmt.Fprintf(w, "Pass Rate: %.2f%%\n", float64(s.Passed)/float64(executed)*100)
	} else {
		fmt.Fprintln(w, "Pass Rate: N/A")
	}
	fmt.Fprintf(w, "Duration: %.0f ms\n", s.DurationMs)
	fmt.Fprintln(w, bold("--------------------"))

	for _, o := range s.Outcomes {
		switch o.Verdict {
		case stats.Fail:
			fmt.Fprintf(w, "%s %s\n", red("FAIL"), o.Name)
			for _, reason := range failReasons(o) {
				fmt.Fprintf(w, "  - %s\n", reason)
			}
		case stats.Error:
			fmt.Fprintf(w, "%s %s\n", yellow("ERROR"), o.Name)
			fmt.Fprintf(w, "  - %s\n", o.Detail)
		}
	}
}
