package stats_test

import (
	"encoding/json"
	"testing"

	"github.com/CyberHorizonLtd/xmltrace/internal/stats"
)

func TestCollector_Counts(t *testing.T) {
	c := stats.NewCollector("suite")
	c.Record(stats.Outcome{Name: "a", Verdict: stats.Pass})
	c.Record(stats.Outcome{Name: "b", Verdict: stats.Fail})
	c.Record(stats.Outcome{Name: "c", Verdict: stats.Pass})
	c.Record(stats.Outcome{Name: "d", Verdict: stats.Error})
	c.Record(stats.Outcome{Name: "e", Verdict: stats.Skip})

	s := c.Summary()
	if s.Total != 5 {
		t.Fatalf("total = %d, want 5", s.Total)
	}
	if s.Passed != 2 || s.Failed != 1 || s.Errored != 1 || s.Skipped != 1 {
		t.Fatalf("counts = %d/%d/%d/%d, want 2/1/1/1", s.Passed, s.Failed, s.Errored, s.Skipped)
	}
	if s.Passed+s.Failed+s.Errored+s.Skipped != s.Total {
		t.Fatal("counts must sum to total")
	}
	if s.Succeeded() {
		t.Fatal("run with failures must not be successful")
	}
	if s.RunID == "" {
		t.Fatal("run id must be set")
	}

	// outcomes keep execution order
	names := []string{"a", "b", "c", "d", "e"}
	for i, o := range s.Outcomes {
		if o.Name != names[i] {
			t.Fatalf("outcomes[%d] = %s, want %s", i, o.Name, names[i])
		}
	}
}

func TestCollector_EmptyRun(t *testing.T) {
	s := stats.NewCollector("").Summary()
	if s.Total != 0 || s.Passed != 0 || s.Failed != 0 || s.Errored != 0 || s.Skipped != 0 {
		t.Fatalf("empty run should have zero counts, got %+v", s)
	}
	if !s.Succeeded() {
		t.Fatal("empty run counts as successful")
	}
}

func TestVerdict_JSONRoundtrip(t *testing.T) {
	for _, v := range []stats.Verdict{stats.Pass, stats.Fail, stats.Error, stats.Skip} {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %v: %v", v, err)
		}
		var got stats.Verdict
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if got != v {
			t.Fatalf("roundtrip %v -> %v", v, got)
		}
	}

	var v stats.Verdict
	if err := json.Unmarshal([]byte(`"bogus"`), &v); err == nil {
		t.Fatal("expected error for unknown verdict string")
	}
}
