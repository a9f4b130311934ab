package source

import "testing"

func TestLocationString(t *testing.T) {
	loc := At("./lib/std.qll", 12, 4)
	if got, want := loc.String(), "lib/std.qll(12)[4]"; got != want {
		t.Fatalf("unexpected rendering: got %q want %q", got, want)
	}
	var none *Location
	if none.String() != "" {
		t.Fatalf("nil location must render empty")
	}
}

func TestLocationOrdering(t *testing.T) {
	a := At("a.qll", 3, 1)
	b := At("a.qll", 3, 7)
	c := At("b.qll", 1, 1)
	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Fatalf("unexpected ordering")
	}
	var none *Location
	if !none.Less(a) || a.Less(none) {
		t.Fatalf("nil must sort first")
	}
	if !a.Equal(At("a.qll", 3, 1)) || a.Equal(b) {
		t.Fatalf("unexpected equality")
	}
}
