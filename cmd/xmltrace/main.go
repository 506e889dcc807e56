package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/CyberHorizonLtd/xmltrace/internal/executor"
	"github.com/CyberHorizonLtd/xmltrace/internal/parser"
	"github.com/CyberHorizonLtd/xmltrace/internal/reporter"
	"github.com/CyberHorizonLtd/xmltrace/internal/trace"
	"github.com/CyberHorizonLtd/xmltrace/internal/vars"
)

var (
	cfgPath    string
	testNames  []string
	paramPairs []string
	paramFiles []string
	logLevel   string
	outputDir  string
	noTrace    bool
	verbose    bool
	rps        float64
	jsonOut    bool
	junitOut   bool
	htmlOut    bool
	xlsxOut    bool
)

var rootCmd = &cobra.Command{
	Use:           "xmltrace",
	Short:         "Declarative test runner for XML HTTP services",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the configured test cases and write reports",
	RunE:  runTests,
}

func init() {
	runCmd.Flags().StringVarP(&cfgPath, "config", "c", "endpoints.yaml", "Path to the YAML suite configuration")
	runCmd.Flags().StringArrayVarP(&testNames, "tests", "t", nil, "Run only the named test cases")
	runCmd.Flags().StringArrayVarP(&paramPairs, "params", "p", nil, "Parameter overrides as key=value pairs")
	runCmd.Flags().StringArrayVar(&paramFiles, "param-file", nil, "JSON files with parameter overrides")
	runCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
	runCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for logs and reports (overrides config)")
	runCmd.Flags().BoolVar(&noTrace, "no-trace", false, "Disable detailed trace events")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print a line per test instead of a spinner")
	runCmd.Flags().Float64Var(&rps, "rps", 0, "Limit request dispatch rate (requests per second, 0 = unlimited)")
	runCmd.Flags().BoolVar(&jsonOut, "json", true, "Write JSON results")
	runCmd.Flags().BoolVar(&junitOut, "junit", true, "Write JUnit XML results")
	runCmd.Flags().BoolVar(&htmlOut, "html", true, "Write HTML report")
	runCmd.Flags().BoolVar(&xlsxOut, "xlsx", false, "Write Excel report")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func runTests(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	suite, err := parser.New().ParseBytes(data)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	// CLI flags win over the config's general section.
	level := suite.General.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	outDir := suite.General.OutputDir
	if outputDir != "" {
		outDir = outputDir
	}
	if outDir == "" {
		outDir = "./reports"
	}
	tracing := suite.General.EnableTracing == nil || *suite.General.EnableTracing
	if noTrace {
		tracing = false
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir output dir: %w", err)
	}

	logger, logFile, err := newLogger(level, outDir)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	overrides, err := collectOverrides()
	if err != nil {
		return err
	}

	sink := trace.Nop()
	if tracing {
		sink = trace.NewLogSink(logger)
	}
	var spin *spinner.Spinner
	if verbose {
		sink = trace.Multi(sink, verboseSink{})
	} else {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		spin.Start()
		sink = trace.Multi(sink, &progressSink{spin: spin})
	}

	suiteName := strings.TrimSuffix(filepath.Base(cfgPath), filepath.Ext(cfgPath))
	runner := executor.New().
		WithName(suiteName).
		WithSelection(testNames).
		WithOverrides(overrides).
		WithTrace(sink).
		WithRateLimit(rps)

	logger.Info("starting run",
		slog.String("config", cfgPath),
		slog.String("output_dir", outDir),
		slog.Bool("tracing", tracing))

	res, err := runner.Run(context.Background(), suite)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	reporter.PrintSummary(os.Stdout, res)

	var jsonPath string
	if jsonOut {
		jsonPath = filepath.Join(outDir, "results.json")
		if err := writeArtifact(jsonPath, func(f *os.File) error {
			return reporter.WriteJSON(f, res)
		}); err != nil {
			return err
		}
	}
	if junitOut {
		if err := writeArtifact(filepath.Join(outDir, "junit.xml"), func(f *os.File) error {
			return reporter.WriteJUnit(f, suiteName, res)
		}); err != nil {
			return err
		}
	}
	if htmlOut {
		htmlPath := filepath.Join(outDir, "report.html")
		// render from results.json when available to guarantee parity
		err := writeArtifact(htmlPath, func(f *os.File) error {
			if jsonPath != "" {
				return reporter.WriteHTMLFromJSONPath(f, suiteName, jsonPath)
			}
			return reporter.WriteHTML(f, suiteName, res)
		})
		if err != nil {
			return err
		}
	}
	if xlsxOut {
		if err := reporter.WriteXLSX(filepath.Join(outDir, "report.xlsx"), res); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
	}

	logger.Info("run finished",
		slog.String("run_id", res.RunID),
		slog.Int("total", res.Total),
		slog.Int("passed", res.Passed),
		slog.Int("failed", res.Failed),
		slog.Int("errored", res.Errored),
		slog.Int("skipped", res.Skipped))

	if !res.Succeeded() {
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(1)
	}
	return nil
}

func collectOverrides() (map[string]string, error) {
	fromFiles, err := vars.LoadJSONFiles(paramFiles)
	if err != nil {
		return nil, fmt.Errorf("load param files: %w", err)
	}
	fromPairs, err := vars.ParsePairs(paramPairs)
	if err != nil {
		return nil, err
	}
	return vars.Merge(fromFiles, fromPairs), nil
}

// newLogger builds a text slog logger writing to stderr and a timestamped
// file under the output directory, mirroring the console output.
func newLogger(level, outDir string) (*slog.Logger, *os.File, error) {
	name := fmt.Sprintf("xmltrace_%s.log", time.Now().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(outDir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("create log file: %w", err)
	}
	h := slog.NewTextHandler(io.MultiWriter(os.Stderr, f), &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(h), f, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func writeArtifact(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// progressSink updates the spinner with the test currently executing.
type progressSink struct {
	spin *spinner.Spinner
}

func (p *progressSink) Emit(ev trace.Event) {
	if ev.Type == trace.TestStart {
		p.spin.Suffix = " " + ev.Test
	}
}

// verboseSink prints one line per finished test.
type verboseSink struct{}

func (verboseSink) Emit(ev trace.Event) {
	if ev.Type != trace.TestEnd {
		return
	}
	fmt.Printf("%-7s %s\n", strings.ToUpper(fmt.Sprint(ev.Fields["verdict"])), ev.Test)
}
