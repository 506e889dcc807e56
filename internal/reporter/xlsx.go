package reporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/CyberHorizonLtd/xmltrace/internal/stats"
)

const (
	resultsSheet = "Results"
	minColumn    = 'A'

	failBgColor  = "FF5900"
	errorBgColor = "FFEB9C"
)

var xlsxHeaders = []string{
	"Test", "Verdict", "Method", "URL", "Status",
	"Duration (ms)", "Checks", "Detail",
}

// WriteXLSX writes the run summary as an Excel workbook: one row per
// outcome with failed and errored rows highlighted, and a summary block
// below the table.
func WriteXLSX(path string, s *stats.RunSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i := range xlsxHeaders {
		col := string(rune(minColumn + i))
		_ = f.SetColWidth(resultsSheet, col, col, 18)
	}
	for i, header := range xlsxHeaders {
		cell := fmt.Sprintf("%c1", minColumn+i)
		if err := f.SetCellValue(resultsSheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	failStyle, err := bgStyle(f, failBgColor)
	if err != nil {
		return err
	}
	errorStyle, err := bgStyle(f, errorBgColor)
	if err != nil {
		return err
	}

	for i, o := range s.Outcomes {
		row := i + 2
		cells := []any{
			o.Name,
			o.Verdict.String(),
			o.Method,
			o.URL,
			o.StatusCode,
			o.DurationMs,
			checksColumn(o),
			o.Detail,
		}
		for j, v := range cells {
			cell := fmt.Sprintf("%c%d", minColumn+j, row)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			switch o.Verdict {
			case stats.Fail:
				_ = f.SetCellStyle(resultsSheet, cell, cell, failStyle)
			case stats.Error:
				_ = f.SetCellStyle(resultsSheet, cell, cell, errorStyle)
			}
		}
	}

	summaryRow := len(s.Outcomes) + 3
	summary := []string{
		"Run Summary",
		fmt.Sprintf("Run ID: %s", s.RunID),
		fmt.Sprintf("Total: %d", s.Total),
		fmt.Sprintf("Passed: %d", s.Passed),
		fmt.Sprintf("Failed: %d", s.Failed),
		fmt.Sprintf("Errored: %d", s.Errored),
		fmt.Sprintf("Skipped: %d", s.Skipped),
		fmt.Sprintf("Duration: %.0f ms", s.DurationMs),
	}
	for i, line := range summary {
		cell := fmt.Sprintf("A%d", summaryRow+i)
		if err := f.SetCellValue(resultsSheet, cell, line); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	return f.SaveAs(path)
}

func bgStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
	if err != nil {
		return 0, fmt.Errorf("new style: %w", err)
	}
	return style, nil
}

func checksColumn(o stats.Outcome) string {
	var lines []string
	for _, c := range o.Checks {
		line := c.Kind + ": "
		if c.Passed {
			line += "pass"
		} else {
			line += c.Reason
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
