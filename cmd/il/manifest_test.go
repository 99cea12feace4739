package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ret.s"), []byte("ret\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := `
library: out.il
routines:
  - name: add_ints
    source: |
      .intel_syntax noprefix
      mov eax, edi
      add eax, esi
      ret
  - file: ret.s
    flags: [--64]
`
	path := filepath.Join(dir, "routines.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest failed: %v", err)
	}
	if got, want := m.Library, filepath.Join(dir, "out.il"); got != want {
		t.Fatalf("Library=%q, want %q", got, want)
	}
	if len(m.Routines) != 2 {
		t.Fatalf("got %d routines, want 2", len(m.Routines))
	}
	if !strings.Contains(m.Routines[0].Source, "add eax, esi") {
		t.Fatalf("inline source lost: %q", m.Routines[0].Source)
	}
	if r := m.Routines[1]; r.Name != "routine1" || r.Source != "ret\n" || len(r.Flags) != 1 {
		t.Fatalf("file routine=%+v", r)
	}
}

func TestLoadManifestRejectsAmbiguousRoutine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routines.yaml")
	data := "routines:\n  - name: x\n    source: ret\n    file: ret.s\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadManifest(path); err == nil {
		t.Fatalf("loadManifest accepted both source and file")
	}
}
