package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/CyberHorizonLtd/xmltrace/internal/ir"
	"github.com/CyberHorizonLtd/xmltrace/internal/stats"
	"github.com/CyberHorizonLtd/xmltrace/internal/trace"
	"github.com/CyberHorizonLtd/xmltrace/internal/vars"
	"github.com/CyberHorizonLtd/xmltrace/internal/xmlcheck"
)

// ---- Request/response model ----

// ResolvedRequest is a test-case definition after parameter substitution:
// concrete method, URL, merged headers and body. Never persisted.
type ResolvedRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// ResponseRecord captures one HTTP exchange. It is consumed by the checks
// within the same test-case evaluation and then discarded.
type ResponseRecord struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Elapsed    time.Duration
}

// ---- Runner ----

// Runner executes the test cases of a suite sequentially and records one
// Outcome per case. A failing or erroring case never aborts the run.
type Runner struct {
	httpClient *http.Client
	overrides  map[string]string
	selection  []string
	sink       trace.Sink
	limiter    *rate.Limiter
	name       string
}

func New() *Runner {
	tr := &http.Transport{
		MaxIdleConns:        128,
		MaxIdleConnsPerHost: 64,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &Runner{httpClient: &http.Client{Transport: tr}, sink: trace.Nop()}
}

// WithOverrides sets caller-supplied parameters, the highest-priority layer
// of the parameter set.
func (r *Runner) WithOverrides(params map[string]string) *Runner {
	r.overrides = clone(params)
	return r
}

// WithSelection restricts the run to the named test cases; every other
// configured case is recorded as skipped. Unknown names fail the run.
func (r *Runner) WithSelection(names []string) *Runner {
	r.selection = names
	return r
}

func (r *Runner) WithTrace(sink trace.Sink) *Runner {
	if sink == nil {
		sink = trace.Nop()
	}
	r.sink = sink
	return r
}

// WithRateLimit paces request dispatch to at most rps requests per second.
func (r *Runner) WithRateLimit(rps float64) *Runner {
	if rps > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return r
}

func (r *Runner) WithName(name string) *Runner { r.name = name; return r }

func clone(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ---- Suite execution ----

func (r *Runner) Run(ctx context.Context, suite *ir.Suite) (*stats.RunSummary, error) {
	if suite == nil {
		return nil, errors.New("nil suite")
	}
	if err := validateSelection(suite, r.selection); err != nil {
		return nil, err
	}

	selected := map[string]bool{}
	for _, n := range r.selection {
		selected[n] = true
	}

	col := stats.NewCollector(r.name)
	for _, tc := range suite.Tests {
		if len(selected) > 0 && !selected[tc.Name] {
			col.Record(stats.Outcome{
				Name:    tc.Name,
				Verdict: stats.Skip,
				Detail:  "not in requested selection",
			})
			continue
		}
		col.Record(r.runCase(ctx, suite, tc))
	}
	return col.Summary(), nil
}

func validateSelection(suite *ir.Suite, names []string) error {
	if len(names) == 0 {
		return nil
	}
	known := make(map[string]bool, len(suite.Tests))
	for _, tc := range suite.Tests {
		known[tc.Name] = true
	}
	var unknown []string
	for _, n := range names {
		if !known[n] {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown test name(s) in selection: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// runCase drives one test case through resolve -> execute -> validate and
// always returns a terminal outcome.
func (r *Runner) runCase(ctx context.Context, suite *ir.Suite, tc ir.TestCase) stats.Outcome {
	out := stats.Outcome{Name: tc.Name, Method: tc.Method, Timestamp: time.Now()}

	r.sink.Emit(trace.Event{Type: trace.TestStart, Test: tc.Name})
	defer func() {
		r.sink.Emit(trace.Event{Type: trace.TestEnd, Test: tc.Name, Fields: map[string]any{
			"verdict": out.Verdict.String(),
		}})
	}()

	params := vars.Merge(suite.Endpoints.Params, tc.Params, r.overrides)

	req, err := BuildRequest(suite.Endpoints, tc, params)
	if err != nil {
		out.Verdict = stats.Error
		out.Detail = "configuration: " + err.Error()
		return out
	}
	out.Method = req.Method
	out.URL = req.URL
	out.ReqHeaders = clone(req.Headers)
	out.ReqBody = req.Body

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			out.Verdict = stats.Error
			out.Detail = fmt.Sprintf("run aborted: %v", err)
			return out
		}
	}

	r.sink.Emit(trace.Event{Type: trace.RequestSent, Test: tc.Name, Fields: map[string]any{
		"method":  req.Method,
		"url":     req.URL,
		"headers": req.Headers,
		"body":    req.Body,
	}})

	rec, err := r.doRequest(ctx, req, tc.EffectiveTimeout(suite.Endpoints))
	out.DurationMs = float64(rec.Elapsed.Milliseconds())
	if err != nil {
		// Transport failure: the case is an error, never a validation fail.
		out.Verdict = stats.Error
		out.Detail = err.Error()
		return out
	}

	out.StatusCode = rec.StatusCode
	out.RespHeaders = rec.Headers
	out.RespBody = limitBody(rec.Body, 64<<10) // 64KB cap in report

	r.sink.Emit(trace.Event{Type: trace.ResponseReceived, Test: tc.Name, Fields: map[string]any{
		"status":     rec.StatusCode,
		"elapsed_ms": out.DurationMs,
		"body":       limitBody(rec.Body, 1<<10),
	}})

	checks, cfgErr := r.evalChecks(tc, params, rec)
	out.Checks = checks
	if cfgErr != nil {
		out.Verdict = stats.Error
		out.Detail = "configuration: " + cfgErr.Error()
		return out
	}

	out.Verdict = stats.Pass
	for _, c := range checks {
		if !c.Passed {
			out.Verdict = stats.Fail
			break
		}
	}
	return out
}

// ---- Request building ----

// BuildRequest resolves a test case against suite defaults and a merged
// parameter set. Path, body and header values each go through placeholder
// substitution; no network I/O happens here.
func BuildRequest(ep ir.Endpoints, tc ir.TestCase, params map[string]string) (ResolvedRequest, error) {
	path, err := vars.Substitute(tc.Path, params)
	if err != nil {
		return ResolvedRequest{}, fmt.Errorf("path: %w", err)
	}

	body := ""
	if tc.Body != "" {
		body, err = vars.Substitute(tc.Body, params)
		if err != nil {
			return ResolvedRequest{}, fmt.Errorf("body: %w", err)
		}
	}

	// Suite default headers first, test-level headers win on collision.
	headers := map[string]string{}
	for k, v := range ep.Headers {
		headers[k] = v
	}
	for k, v := range tc.Headers {
		headers[k] = v
	}
	for k, v := range headers {
		headers[k], err = vars.Substitute(v, params)
		if err != nil {
			return ResolvedRequest{}, fmt.Errorf("header %s: %w", k, err)
		}
	}

	return ResolvedRequest{
		Method:  tc.Method,
		URL:     joinURL(ep.BaseURL, path),
		Headers: headers,
		Body:    body,
	}, nil
}

// joinURL joins base and path with exactly one separating slash.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ---- HTTP ----

func (r *Runner) doRequest(ctx context.Context, req ResolvedRequest, timeout time.Duration) (ResponseRecord, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(cctx, req.Method, req.URL, body)
	if err != nil {
		return ResponseRecord{}, fmt.Errorf("new request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return ResponseRecord{Elapsed: time.Since(start)}, classifyTransport(err, timeout)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		// Elapsed time runs to full response receipt, so a body cut short
		// by the deadline is still a transport failure.
		return ResponseRecord{Elapsed: elapsed}, classifyTransport(err, timeout)
	}

	return ResponseRecord{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
		Elapsed:    elapsed,
	}, nil
}

// classifyTransport separates "too slow" from "unreachable" so the outcome
// detail tells the user which one happened.
func classifyTransport(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout: no response within %s", timeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("timeout: no response within %s", timeout)
	}
	return fmt.Errorf("connection: %v", err)
}

// ---- Checks ----

// evalChecks runs every configured check in order: status, structural,
// textual. Checks do not short-circuit on failure, so the outcome carries
// the complete diagnostic picture. A malformed expression or pattern is a
// configuration error that aborts the case instead.
func (r *Runner) evalChecks(tc ir.TestCase, params map[string]string, rec ResponseRecord) ([]stats.CheckResult, error) {
	var checks []stats.CheckResult
	record := func(kind string, passed bool, reason string) {
		checks = append(checks, stats.CheckResult{Kind: kind, Passed: passed, Reason: reason})
		r.sink.Emit(trace.Event{Type: trace.CheckEvaluated, Test: tc.Name, Fields: map[string]any{
			"kind":   kind,
			"passed": passed,
			"reason": reason,
		}})
	}

	if tc.ExpectedStatus != 0 {
		if rec.StatusCode == tc.ExpectedStatus {
			record(ir.CheckStatus, true, "")
		} else {
			record(ir.CheckStatus, false,
				fmt.Sprintf("status: got %d, want %d", rec.StatusCode, tc.ExpectedStatus))
		}
	}

	if tc.ValidationXPath != "" {
		expr, err := vars.Substitute(tc.ValidationXPath, params)
		if err != nil {
			return checks, fmt.Errorf("structural expression: %w", err)
		}
		path, err := xmlcheck.ParsePath(expr)
		if err != nil {
			return checks, err
		}
		doc, perr := xmlcheck.ParseDocument(rec.Body)
		if perr != nil {
			record(ir.CheckStructural, false,
				fmt.Sprintf("response not parseable as XML: %v", perr))
		} else if ok, diag := path.Eval(doc); ok {
			record(ir.CheckStructural, true, "")
		} else {
			record(ir.CheckStructural, false, fmt.Sprintf("structural: %s", diag))
		}
	}

	if tc.ValidationRegex != "" {
		pattern, err := vars.Substitute(tc.ValidationRegex, params)
		if err != nil {
			return checks, fmt.Errorf("textual pattern: %w", err)
		}
		ok, err := xmlcheck.MatchPattern(rec.Body, pattern)
		if err != nil {
			return checks, err
		}
		if ok {
			record(ir.CheckTextual, true, "")
		} else {
			record(ir.CheckTextual, false,
				fmt.Sprintf("textual: pattern %q not found in body", pattern))
		}
	}

	return checks, nil
}

// ---- small helpers ----

func limitBody(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "\n...[truncated]..."
}
