package xmlcheck_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/CyberHorizonLtd/xmltrace/internal/xmlcheck"
)

const slidesXML = `<?xml version="1.0" encoding="UTF-8"?>
<slides title="Sample Slide Show">
  <slide id="slide-title"><title>Slide 1</title></slide>
  <slide id="slide-overview"><title>Overview</title><item>Why XML is great</item></slide>
</slides>`

const catalogXML = `
<root>
  <product id="123">
    <name>Example Product</name>
    <price currency="USD">19.99</price>
  </product>
  <order id="A1">
    <item id="i1">Laptop</item>
    <item id="i2">Mouse</item>
  </order>
</root>`

func TestEval_MatchWithPredicate(t *testing.T) {
	doc, err := xmlcheck.ParseDocument([]byte(slidesXML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	path, err := xmlcheck.ParsePath("/slides/slide[id='slide-title']")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	ok, diag := path.Eval(doc)
	if !ok {
		t.Fatalf("expected match, got diagnostic %q", diag)
	}
}

func TestEval_PredicateMismatch(t *testing.T) {
	doc, err := xmlcheck.ParseDocument([]byte(slidesXML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	path, err := xmlcheck.ParsePath("/slides/slide[id='other']")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	ok, diag := path.Eval(doc)
	if ok {
		t.Fatal("expected no match")
	}
	if !strings.Contains(diag, "slide[id='other']") {
		t.Fatalf("diagnostic should name the failed segment, got %q", diag)
	}
}

func TestEval_FirstSegmentRecursive(t *testing.T) {
	doc, err := xmlcheck.ParseDocument([]byte(catalogXML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	// product is not the root, but the first segment searches recursively
	path, err := xmlcheck.ParsePath("product/name")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if ok, diag := path.Eval(doc); !ok {
		t.Fatalf("expected match, got %q", diag)
	}

	// name is not a direct child of root: later segments do not recurse
	path, err = xmlcheck.ParsePath("root/name")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if ok, _ := path.Eval(doc); ok {
		t.Fatal("later segments must match direct children only")
	}
}

func TestEval_DiagnosticNamesFirstfailingSegment(t *testing.T) {
	doc, err := xmlcheck.ParseDocument([]byte(catalogXML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	path, err := xmlcheck.ParsePath("order/item[id='i1']/serial")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	ok, diag := path.Eval(doc)
	if ok {
		t.Fatal("expected no match")
	}
	if !strings.Contains(diag, `"serial"`) {
		t.Fatalf("diagnostic should name segment serial, got %q", diag)
	}
	if !strings.Contains(diag, "order/item[id='i1']") {
		t.Fatalf("diagnostic should show the matched prefix, got %q", diag)
	}
}

func TestEval_AttributePredicateQuoting(t *testing.T) {
	doc, err := xmlcheck.ParseDocument([]byte(catalogXML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	for _, expr := range []string{
		`price[currency='USD']`,
		`price[currency="USD"]`,
		`price[currency=USD]`,
	} {
		path, err := xmlcheck.ParsePath(expr)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", expr, err)
		}
		if ok, diag := path.Eval(doc); !ok {
			t.Fatalf("expr %q: expected match, got %q", expr, diag)
		}
	}
}

func TestParsePath_Malformed(t *testing.T) {
	for _, expr := range []string{
		"",
		"/",
		"a//b",
		"item[id='x'",
		"item[id]",
		"[id='x']",
		"a b/c",
	} {
		_, err := xmlcheck.ParsePath(expr)
		if err == nil {
			t.Fatalf("ParsePath(%q): expected error", expr)
		}
		if !errors.Is(err, xmlcheck.ErrBadPath) {
			t.Fatalf("ParsePath(%q): expected ErrBadPath, got %v", expr, err)
		}
	}
}

func TestParseDocument_NotXML(t *testing.T) {
	_, err := xmlcheck.ParseDocument([]byte(`<!doctype html><html><body><h1>Hi</h1><br></body></html>`))
	if err == nil {
		t.Fatal("expected parse error for HTML body")
	}

	_, err = xmlcheck.ParseDocument([]byte(`plain text, no markup`))
	if err == nil {
		t.Fatal("expected parse error for plain text body")
	}
}

func TestMatchPattern(t *testing.T) {
	body := []byte(slidesXML)

	ok, err := xmlcheck.MatchPattern(body, `<title>Slide 1</title>`)
	if err != nil {
		t.Fatalf("MatchPattern: %v", err)
	}
	if !ok {
		t.Fatal("expected pattern to match")
	}

	ok, err = xmlcheck.MatchPattern(body, `<title>Slide 99</title>`)
	if err != nil {
		t.Fatalf("MatchPattern: %v", err)
	}
	if ok {
		t.Fatal("expected pattern not to match")
	}

	if _, err := xmlcheck.MatchPattern(body, `([unclosed`); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}
