package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("bind")
	tm.End(a, "")
	b := tm.Begin("typecheck")
	tm.End(b, "2 errors")
	tm.End(7, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "bind" || r.Phases[1].Note != "2 errors" {
		t.Fatalf("unexpected report %+v", r)
	}
	s := tm.Summary()
	if !strings.Contains(s, "typecheck") || !strings.Contains(s, "// 2 errors") || !strings.Contains(s, "total") {
		t.Fatalf("summary:\n%s", s)
	}
	if (&Timer{}).Report().Phases != nil {
		t.Fatalf("empty timer must report no phases")
	}
}
