package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeUnit, false},
		{LevelDetail, ScopeUnit, true},
		{LevelDetail, ScopeDecl, false},
		{LevelDebug, ScopeDecl, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	span := Begin(tr, ScopePass, "typecheck", 0)
	Begin(tr, ScopeDecl, "global::main", span.ID()).End("")
	span.WithExtra("decls", "3").End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d events, want 2 (decl spans filtered):\n%s", len(lines), buf.String())
	}
	var end struct {
		Kind   string            `json:"kind"`
		Name   string            `json:"name"`
		Detail string            `json:"detail"`
		Extra  map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if end.Kind != "end" || end.Name != "typecheck" || end.Detail != "ok" || end.Extra["decls"] != "3" {
		t.Fatalf("unexpected end event %+v", end)
	}
}

func TestRingKeepsLast(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopePass, Name: name})
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ""); got != "cde" {
		t.Fatalf("snapshot = %q, want cde", got)
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context must yield Nop")
	}
	ring := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	span := Begin(FromContext(ctx), ScopePass, "link", 0)
	ctx = WithSpan(ctx, span)
	child := Begin(FromContext(ctx), ScopeDecl, "global::$start", CurrentSpan(ctx))
	child.End("")
	span.End("")
	events := ring.Snapshot()
	if len(events) != 4 || events[1].ParentID != span.ID() {
		t.Fatalf("child span not parented: %+v", events)
	}
}

func TestNewOff(t *testing.T) {
	tr, ring, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop || ring != nil {
		t.Fatalf("New(off) = %v, %v, %v", tr, ring, err)
	}
}
