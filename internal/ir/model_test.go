package ir_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/CyberHorizonLtd/xmltrace/internal/ir"
)

func TestParams_CoercesScalars(t *testing.T) {
	var p ir.Params
	err := yaml.Unmarshal([]byte(`
product_id: 123
price: 19.99
active: true
label: widget
`), &p)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := ir.Params{
		"product_id": "123",
		"price":      "19.99",
		"active":     "true",
		"label":      "widget",
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectiveTimeout(t *testing.T) {
	ep := ir.Endpoints{TimeoutSec: 10}

	tc := ir.TestCase{Name: "T"}
	if got := tc.EffectiveTimeout(ep); got != 10*time.Second {
		t.Fatalf("effective = %v, want suite default 10s", got)
	}

	tc.TimeoutSec = 2
	if got := tc.EffectiveTimeout(ep); got != 2*time.Second {
		t.Fatalf("effective = %v, want test override 2s", got)
	}
}
