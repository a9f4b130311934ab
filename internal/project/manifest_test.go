package project

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const sample = `
[package]
name = "blink"
compiler = ">= 0.4, < 1"

[build]
inputs = ["units/*.json", "extra.mp", "units/b.json"]
entry = "boot::main"
output = "out/blink.asm"
max-diagnostics = 20
exports = ["tick"]
`

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), sample)
	writeFile(t, filepath.Join(root, "units", "b.json"), "[]")
	writeFile(t, filepath.Join(root, "units", "a.json"), "[]")
	nested := filepath.Join(root, "units", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("Discover = %v, %v", ok, err)
	}
	if m.Package.Name != "blink" || m.Build.Entry != "boot::main" || m.Build.MaxDiagnostics != 20 {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if m.OutputPath() != filepath.Join(root, "out", "blink.asm") {
		t.Fatalf("output = %s", m.OutputPath())
	}

	inputs, err := m.InputPaths()
	if err != nil {
		t.Fatalf("inputs: %v", err)
	}
	want := []string{
		filepath.Join(root, "units", "a.json"),
		filepath.Join(root, "units", "b.json"),
		filepath.Join(root, "extra.mp"),
	}
	if !slices.Equal(inputs, want) {
		t.Fatalf("inputs = %v, want %v", inputs, want)
	}
}

func TestDiscoverWithoutManifest(t *testing.T) {
	// t.TempDir lives under the system temp directory, which has no qll.toml
	m, ok, err := Discover(t.TempDir())
	if err != nil || (ok && m == nil) {
		t.Fatalf("Discover = %v, %v, %v", m, ok, err)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no package", "[build]\nentry = \"main\"\n", "missing [package]"},
		{"no name", "[package]\ncompiler = \"1.x\"\n", "missing [package].name"},
		{"unknown key", "[package]\nname = \"x\"\n[build]\nentrypoint = \"main\"\n", "unknown keys build.entrypoint"},
		{"bad constraint", "[package]\nname = \"x\"\ncompiler = \"not a range\"\n", "[package].compiler"},
		{"negative cap", "[package]\nname = \"x\"\n[build]\nmax-diagnostics = -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			writeFile(t, path, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestCheckCompiler(t *testing.T) {
	m := &Manifest{Path: ManifestName, Package: Package{Name: "x", Compiler: ">= 0.4, < 1"}}
	if err := m.CheckCompiler("0.4.2"); err != nil {
		t.Fatalf("0.4.2 rejected: %v", err)
	}
	if err := m.CheckCompiler("1.0.0"); !errors.Is(err, ErrCompilerMismatch) {
		t.Fatalf("1.0.0 accepted or wrong error: %v", err)
	}
	if err := (&Manifest{}).CheckCompiler("0.0.1"); err != nil {
		t.Fatalf("empty constraint rejected: %v", err)
	}
}

func TestHashFiles(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")
	writeFile(t, a, "[1]")
	writeFile(t, b, "[2]")
	first, err := HashFiles([]string{a, b})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	again, _ := HashFiles([]string{a, b})
	swapped, _ := HashFiles([]string{b, a})
	if first != again || first == swapped {
		t.Fatalf("digest must be stable and order-sensitive")
	}
	writeFile(t, b, "[3]")
	if changed, _ := HashFiles([]string{a, b}); changed == first {
		t.Fatalf("digest ignored a content change")
	}
}
