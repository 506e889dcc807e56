package parser_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/CyberHorizonLtd/xmltrace/internal/ir"
	"github.com/CyberHorizonLtd/xmltrace/internal/parser"
)

const validYAML = `
general:
  log_level: DEBUG
  output_dir: ./reports
  enable_tracing: true
endpoints:
  base_url: http://localhost:8080
  timeout: 5
  headers:
    Accept: application/xml
tests:
  - name: GetProductInfo
    path: /products/{product_id}
    method: get
    params:
      product_id: 123
    expected_status: 200
    validation_xpath: product/name
    validation_regex: <name>.+</name>
  - name: SubmitOrder
    path: /orders
    method: POST
    body: <order><item>{item}</item></order>
    expected_status: 201
    timeout: 2
`

const missingBaseURLYAML = `
endpoints:
  timeout: 5
tests:
  - name: T
    path: /x
`

const duplicateNameYAML = `
endpoints:
  base_url: http://localhost:8080
tests:
  - name: Same
    path: /a
  - name: Same
    path: /b
`

const unknownFieldYAML = `
endpoints:
  base_url: http://localhost:8080
tests:
  - name: T
    path: /x
    notARealField: true
`

func TestParse_ValidSuite(t *testing.T) {
	p := parser.New()

	suite, err := p.ParseBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("ParseBytes error: %v", err)
	}
	if suite == nil {
		t.Fatal("suite is nil")
	}
	if diff := cmp.Diff("http://localhost:8080", suite.Endpoints.BaseURL); diff != "" {
		t.Fatalf("base_url mismatch (-want +got):\n%s", diff)
	}
	if suite.Endpoints.TimeoutSec != 5 {
		t.Fatalf("timeout = %d, want 5", suite.Endpoints.TimeoutSec)
	}
	if len(suite.Tests) != 2 {
		t.Fatalf("tests len = %d, want 2", len(suite.Tests))
	}

	get := suite.Tests[0]
	if get.Method != "GET" {
		t.Fatalf("method = %s, want GET (normalized)", get.Method)
	}
	// numeric param values are coerced to strings
	if diff := cmp.Diff(ir.Params{"product_id": "123"}, get.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	if get.ValidationXPath != "product/name" {
		t.Fatalf("validation_xpath = %q", get.ValidationXPath)
	}

	post := suite.Tests[1]
	if post.TimeoutSec != 2 {
		t.Fatalf("test timeout = %d, want 2", post.TimeoutSec)
	}
	if post.ExpectedStatus != 201 {
		t.Fatalf("expected_status = %d, want 201", post.ExpectedStatus)
	}
}

func TestParse_Validation_MissingBaseURL(t *testing.T) {
	p := parser.New()

	_, err := p.ParseBytes([]byte(missingBaseURLYAML))
	if err == nil {
		t.Fatal("expected error for missing base_url, got nil")
	}
	if !errors.Is(err, parser.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParse_Validation_DuplicateNames(t *testing.T) {
	p := parser.New()

	_, err := p.ParseBytes([]byte(duplicateNameYAML))
	if err == nil {
		t.Fatal("expected error for duplicate test names, got nil")
	}
	if !errors.Is(err, parser.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParse_KnownFieldsEnforced(t *testing.T) {
	p := parser.New()

	_, err := p.ParseBytes([]byte(unknownFieldYAML))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestParse_DefaultMethodAndTimeout(t *testing.T) {
	p := parser.New()

	suite, err := p.ParseBytes([]byte(`
endpoints:
  base_url: http://localhost:8080
tests:
  - name: T
    path: /x
`))
	if err != nil {
		t.Fatalf("ParseBytes error: %v", err)
	}
	if suite.Tests[0].Method != "GET" {
		t.Fatalf("method = %s, want GET default", suite.Tests[0].Method)
	}
	if got := suite.Endpoints.Timeout().Seconds(); got != 10 {
		t.Fatalf("default timeout = %v s, want 10", got)
	}
	if got := suite.Tests[0].EffectiveTimeout(suite.Endpoints).Seconds(); got != 10 {
		t.Fatalf("effective timeout = %v s, want suite default 10", got)
	}
}
