package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CyberHorizonLtd/xmltrace/internal/ir"
)

var ErrValidation = errors.New("validation error")

type Parser struct{}

func New() *Parser { return &Parser{} }

// ParseBytes parses a YAML suite definition into IR and validates it.
func (p *Parser) ParseBytes(b []byte) (*ir.Suite, error) {
	var suite ir.Suite

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true) // fail on unknown fields

	if err := dec.Decode(&suite); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := validateSuite(&suite); err != nil {
		return nil, err
	}

	// Normalize HTTP methods; GET when unset
	for i := range suite.Tests {
		m := strings.ToUpper(strings.TrimSpace(suite.Tests[i].Method))
		if m == "" {
			m = "GET"
		}
		suite.Tests[i].Method = m
	}
	return &suite, nil
}

// --- validation helpers ---

func validateSuite(s *ir.Suite) error {
	if s.Endpoints.BaseURL == "" {
		return wrapValidation("endpoints.base_url must not be empty")
	}
	if len(s.Tests) == 0 {
		return wrapValidation("tests must not be empty")
	}
	seen := make(map[string]int, len(s.Tests))
	for i := range s.Tests {
		if err := validateTest(&s.Tests[i], i); err != nil {
			return err
		}
		if prev, dup := seen[s.Tests[i].Name]; dup {
			return wrapValidation(fmt.Sprintf("tests[%d].name %q duplicates tests[%d] (names select tests and must be unique)", i, s.Tests[i].Name, prev))
		}
		seen[s.Tests[i].Name] = i
	}
	return nil
}

func validateTest(tc *ir.TestCase, idx int) error {
	if tc.Name == "" {
		return wrapValidation(fmt.Sprintf("tests[%d].name must not be empty", idx))
	}
	if tc.Path == "" {
		return wrapValidation(fmt.Sprintf("tests[%d].path must not be empty", idx))
	}
	if tc.ExpectedStatus < 0 || tc.ExpectedStatus > 599 {
		return wrapValidation(fmt.Sprintf("tests[%d].expected_status %d is not an HTTP status code", idx, tc.ExpectedStatus))
	}
	if tc.TimeoutSec < 0 {
		return wrapValidation(fmt.Sprintf("tests[%d].timeout must not be negative", idx))
	}
	return nil
}

func wrapValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
