// Package xmlcheck validates XML response bodies: structural checks against
// a restricted path expression and textual checks against a regular
// expression.
//
// The structural grammar is deliberately small, not XPath. Segments are
// separated by "/"; each segment is a bare tag name or a tag with a single
// attribute-equality predicate:
//
//	/slides/slide[id='slide-title']
//	product/name
//	item[sku="A-1"]
//
// The first segment matches anywhere under the document root; every later
// segment matches direct children of the previous segment's matches.
package xmlcheck

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

var ErrBadPath = errors.New("malformed structural path")

// Segment is one step of a structural path: a tag name plus an optional
// attribute-equality predicate.
type Segment struct {
	Tag       string
	Attr      string
	AttrValue string
	HasPred   bool
}

func (s Segment) String() string {
	if !s.HasPred {
		return s.Tag
	}
	return fmt.Sprintf("%s[%s='%s']", s.Tag, s.Attr, s.AttrValue)
}

// Path is a parsed structural path expression.
type Path struct {
	raw  string
	segs []Segment
}

func (p Path) String() string { return p.raw }

// ParsePath parses a structural path expression. Leading and trailing
// slashes are ignored; an empty expression or segment is an error.
func ParsePath(expr string) (Path, error) {
	raw := strings.TrimSpace(expr)
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return Path{}, fmt.Errorf("%w: empty expression", ErrBadPath)
	}

	parts := strings.Split(trimmed, "/")
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return Path{}, err
		}
		segs = append(segs, seg)
	}
	return Path{raw: raw, segs: segs}, nil
}

func parseSegment(part string) (Segment, error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return Segment{}, fmt.Errorf("%w: empty segment", ErrBadPath)
	}

	tag, rest, hasPred := strings.Cut(part, "[")
	if !validName(tag) {
		return Segment{}, fmt.Errorf("%w: invalid tag name %q", ErrBadPath, tag)
	}
	if !hasPred {
		return Segment{Tag: tag}, nil
	}

	pred, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return Segment{}, fmt.Errorf("%w: unterminated predicate in %q", ErrBadPath, part)
	}
	attr, val, ok := strings.Cut(pred, "=")
	if !ok {
		return Segment{}, fmt.Errorf("%w: predicate %q is not attr='value'", ErrBadPath, pred)
	}
	attr = strings.TrimSpace(attr)
	if !validName(attr) {
		return Segment{}, fmt.Errorf("%w: invalid attribute name %q", ErrBadPath, attr)
	}
	val = strings.TrimSpace(val)
	val = strings.Trim(val, `'"`)
	return Segment{Tag: tag, Attr: attr, AttrValue: val, HasPred: true}, nil
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][\w.\-]*$`)

func validName(s string) bool { return namePattern.MatchString(s) }

// ParseDocument parses body as well-formed XML. Callers treat a returned
// error as a failing validation, not a crash.
func ParseDocument(body []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

// Eval reports whether at least one element chain in doc matches the path.
// On a miss the diagnostic names the first segment that had no candidates.
func (p Path) Eval(doc *etree.Document) (bool, string) {
	if len(p.segs) == 0 {
		return false, "empty structural path"
	}

	// The first segment is searched recursively from the root (the root
	// element itself included); later segments narrow to direct children
	// of the surviving matches.
	current := matchAnywhere(doc.Root(), p.segs[0])
	if len(current) == 0 {
		return false, missDiagnostic(p.segs, 0)
	}

	for i := 1; i < len(p.segs); i++ {
		var next []*etree.Element
		for _, el := range current {
			for _, ch := range el.ChildElements() {
				if segmentMatches(ch, p.segs[i]) {
					next = append(next, ch)
				}
			}
		}
		if len(next) == 0 {
			return false, missDiagnostic(p.segs, i)
		}
		current = next
	}
	return true, ""
}

func missDiagnostic(segs []Segment, failed int) string {
	matched := make([]string, 0, failed)
	for _, s := range segs[:failed] {
		matched = append(matched, s.String())
	}
	if failed == 0 {
		return fmt.Sprintf("no element matches segment %q", segs[0].String())
	}
	return fmt.Sprintf("no element matches segment %q under %s",
		segs[failed].String(), strings.Join(matched, "/"))
}

func matchAnywhere(root *etree.Element, seg Segment) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if segmentMatches(el, seg) {
			out = append(out, el)
		}
		for _, ch := range el.ChildElements() {
			walk(ch)
		}
	}
	walk(root)
	return out
}

func segmentMatches(el *etree.Element, seg Segment) bool {
	if el.Tag != seg.Tag {
		return false
	}
	if !seg.HasPred {
		return true
	}
	attr := el.SelectAttr(seg.Attr)
	return attr != nil && attr.Value == seg.AttrValue
}

// MatchPattern reports whether pattern finds a match anywhere in body
// (search semantics). A pattern that does not compile is a configuration
// error surfaced to the caller, never swallowed.
func MatchPattern(body []byte, pattern string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("malformed pattern %q: %w", pattern, err)
	}
	return re.Match(body), nil
}
