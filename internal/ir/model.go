package ir

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Check kinds recorded per test case (string constants for portability)
const (
	CheckStatus     = "status"
	CheckStructural = "structural"
	CheckTextual    = "textual"
)

// Suite is the full configuration file: general run settings, endpoint
// defaults shared by every test case, and the ordered test list.
type Suite struct {
	General   General    `json:"general,omitempty" yaml:"general,omitempty"`
	Endpoints Endpoints  `json:"endpoints" yaml:"endpoints"`
	Tests     []TestCase `json:"tests" yaml:"tests"`
}

type General struct {
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	OutputDir     string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	EnableTracing *bool  `json:"enable_tracing,omitempty" yaml:"enable_tracing,omitempty"`
}

type Endpoints struct {
	BaseURL    string            `json:"base_url" yaml:"base_url"`
	TimeoutSec int               `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Params     Params            `json:"params,omitempty" yaml:"params,omitempty"`
}

type TestCase struct {
	Name            string            `json:"name" yaml:"name"`
	Path            string            `json:"path" yaml:"path"`
	Method          string            `json:"method,omitempty" yaml:"method,omitempty"`
	Body            string            `json:"body,omitempty" yaml:"body,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Params          Params            `json:"params,omitempty" yaml:"params,omitempty"`
	ExpectedStatus  int               `json:"expected_status,omitempty" yaml:"expected_status,omitempty"`
	ValidationXPath string            `json:"validation_xpath,omitempty" yaml:"validation_xpath,omitempty"`
	ValidationRegex string            `json:"validation_regex,omitempty" yaml:"validation_regex,omitempty"`
	TimeoutSec      int               `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Params is a name->value parameter mapping. YAML scalars of any type are
// accepted and coerced to their string form, so `product_id: 123` and
// `product_id: "123"` configure the same parameter.
type Params map[string]string

func (p *Params) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	out := make(Params, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case string:
			out[k] = x
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	*p = out
	return nil
}

// Timeout returns the suite-wide request deadline.
func (e Endpoints) Timeout() time.Duration {
	if e.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(e.TimeoutSec) * time.Second
}

// EffectiveTimeout returns the per-case deadline: the test-level override
// when present, otherwise the suite default.
func (tc TestCase) EffectiveTimeout(e Endpoints) time.Duration {
	if tc.TimeoutSec > 0 {
		return time.Duration(tc.TimeoutSec) * time.Second
	}
	return e.Timeout()
}
