package reporter

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/CyberHorizonLtd/xmltrace/internal/stats"
)

// --- Primary HTML renderer ---

func WriteHTML(w io.Writer, suiteName string, s *stats.RunSummary) error {
	var sb strings.Builder

	sb.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
	sb.WriteString(`<meta name="viewport" content="width=device-width,initial-scale=1">`)
	sb.WriteString(`<title>xmltrace Report — ` + html.EscapeString(suiteName) + `</title>`)
	sb.WriteString(`<style>
:root { --ok:#0a0; --bad:#b00; --warn:#b60; --muted:#666; --chip:#eee; --line:#e5e5e5; }
body{font-family:system-ui,Segoe UI,Roboto,Arial,sans-serif;margin:24px;line-height:1.45}
h1{margin:0 0 12px}
h2{margin:0 0 8px;font-size:1.05rem}
.summary{display:flex;gap:12px;align-items:center;margin:12px 0 18px}
.pass{color:var(--ok)} .fail{color:var(--bad)} .error{color:var(--warn)} .skip{color:var(--muted)}
.badge{display:inline-block;padding:2px 8px;border-radius:999px;background:var(--chip);font-size:.85rem}
.card{border:1px solid var(--line);border-radius:12px;padding:16px;margin:12px 0}
details>summary{cursor:pointer;list-style:none}
details>summary::-webkit-details-marker{display:none}
summary {padding:6px 0}
pre{background:#f8f8f8;padding:12px;border-radius:8px;overflow:auto;max-height:320px;margin:8px 0 0;white-space:pre-wrap}
.muted{color:var(--muted)}
hr{border:0;border-top:1px solid var(--line);margin:20px 0}
.small{font-size:.85rem}
.kv{margin-top:6px}
</style></head><body>`)

	// Header
	sb.WriteString(`<h1>` + html.EscapeString(suiteName) + `</h1>`)
	sb.WriteString(`<div class="summary">`)
	sb.WriteString(`<div>Status: <strong class="` + statusClass(s.Succeeded()) + `">` + tern(s.Succeeded(), "PASS", "FAIL") + `</strong></div>`)
	sb.WriteString(chip("Duration: " + ms(s.DurationMs)))
	sb.WriteString(chip("Tests: " + strconv.Itoa(s.Total)))
	sb.WriteString(chip("Passed: " + strconv.Itoa(s.Passed)))
	sb.WriteString(chip("Failed: " + strconv.Itoa(s.Failed)))
	sb.WriteString(chip("Errored: " + strconv.Itoa(s.Errored)))
	sb.WriteString(chip("Skipped: " + strconv.Itoa(s.Skipped)))
	sb.WriteString(`</div><hr>`)

	// Test cases
	for _, o := range s.Outcomes {
		open := o.Verdict == stats.Fail || o.Verdict == stats.Error
		sb.WriteString(`<div class="card">`)
		sb.WriteString(`<details ` + tern(open, "open", "") + `>`)
		sb.WriteString(`<summary><h2 style="display:inline">` + html.EscapeString(o.Name) + `</h2> ` +
			badgeVerdict(o.Verdict) + ` ` + chip(ms(o.DurationMs)))
		if o.StatusCode != 0 {
			sb.WriteString(` ` + chip("status "+strconv.Itoa(o.StatusCode)))
		}
		sb.WriteString(`</summary>`)

		// Checks
		if len(o.Checks) > 0 {
			sb.WriteString(`<div class="small muted" style="margin-top:10px;">Checks</div><pre>`)
			for _, c := range o.Checks {
				line := c.Kind + ": " + tern(c.Passed, "pass", "fail")
				if c.Reason != "" {
					line += " — " + c.Reason
				}
				sb.WriteString(html.EscapeString(line) + "\n")
			}
			sb.WriteString(`</pre>`)
		}
		if o.Detail != "" {
			sb.WriteString(`<pre>` + html.EscapeString(o.Detail) + `</pre>`)
		}

		// Request
		if o.Method != "" || o.URL != "" {
			sb.WriteString(`<div class="small muted" style="margin-top:10px;">Request</div>`)
			sb.WriteString(`<pre>` + html.EscapeString(o.Method+" "+o.URL) + `</pre>`)
			if len(o.ReqHeaders) > 0 {
				sb.WriteString(`<pre class="kv">` + html.EscapeString(kvBlock(o.ReqHeaders)) + `</pre>`)
			}
			if o.ReqBody != "" {
				sb.WriteString(`<pre>` + html.EscapeString(o.ReqBody) + `</pre>`)
			}
		}

		// Response
		if o.StatusCode != 0 {
			sb.WriteString(`<div class="small muted" style="margin-top:10px;">Response</div>`)
			if len(o.RespHeaders) > 0 {
				sb.WriteString(`<pre class="kv">` + html.EscapeString(hdrBlock(o.RespHeaders)) + `</pre>`)
			}
			if o.RespBody != "" {
				sb.WriteString(`<pre>` + html.EscapeString(o.RespBody) + `</pre>`)
			}
		}

		sb.WriteString(`</details>`)
		sb.WriteString(`</div>`)
	}

	sb.WriteString(`</body></html>`)
	_, err := io.WriteString(w, sb.String())
	return err
}

// --- Helper that guarantees HTML matches the on-disk results.json ---

func WriteHTMLFromJSONPath(w io.Writer, suiteName, resultsJSONPath string) error {
	data, err := os.ReadFile(resultsJSONPath)
	if err != nil {
		return fmt.Errorf("read results.json: %w", err)
	}
	var s stats.RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode results.json: %w", err)
	}
	return WriteHTML(w, suiteName, &s)
}

func statusClass(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func badgeVerdict(v stats.Verdict) string {
	return `<span class="badge ` + v.String() + `">` + strings.ToUpper(v.String()) + `</span>`
}

func chip(text string) string {
	return `<span class="badge">` + html.EscapeString(text) + `</span>`
}

func ms(v float64) string { return fmt.Sprintf("%.0f ms", v) }

func tern[T ~string](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

func kvBlock(h map[string]string) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(h[k])
		b.WriteByte('\n')
	}
	return b.String()
}

func hdrBlock(h map[string][]string) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(h[k], ", "))
		b.WriteByte('\n')
	}
	return b.String()
}
