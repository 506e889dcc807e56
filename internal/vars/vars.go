package vars

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Placeholders look like {product_id}: word characters between braces.
var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// UnresolvedError reports placeholders whose names are absent from the
// parameter set. Leaving them in place would silently test against literal
// `{name}` URLs, so substitution is total or fails.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved parameters: %s (define via params or -p key=value)",
		strings.Join(e.Names, ", "))
}

// Merge overlays parameter layers left to right, later layers winning on
// key collision. Nil layers are skipped; the result is always a fresh map.
func Merge(layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// Substitute replaces every {name} placeholder in tmpl with its value from
// params. Any placeholder without a value makes the whole substitution fail
// with an *UnresolvedError naming the missing keys.
func Substitute(tmpl string, params map[string]string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := params[key]; ok {
			return v
		}
		missing = append(missing, key)
		return m
	})
	if len(missing) > 0 {
		return "", &UnresolvedError{Names: missing}
	}
	return out, nil
}

// ParsePairs converts command-line key=value arguments into a parameter map.
func ParsePairs(pairs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

// LoadJSONFiles merges flat JSON objects from the given files into a
// parameter map, coercing non-string values to their string form.
func LoadJSONFiles(paths []string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}

		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		for k, v := range m {
			switch x := v.(type) {
			case string:
				out[k] = x
			default:
				out[k] = fmt.Sprint(x) // coerce numbers/bools to string
			}
		}
	}
	return out, nil
}
