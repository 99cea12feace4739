package dump

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tinyrange/il/internal/cache"
	"github.com/tinyrange/il/internal/testutil"
)

func sample() *cache.Library {
	lib := cache.NewLibrary()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	lib.Put(&cache.Artifact{Key: "bbbb", Name: "second", Code: []byte{0x90, 0xc3}, CreatedAt: at})
	lib.Put(&cache.Artifact{Key: "aaaa", Name: "first", Code: []byte{0xc3}, CreatedAt: at})
	lib.Put(&cache.Artifact{Key: "cccc", Name: "broken", CreatedAt: at})
	return lib
}

func TestWriteListsSortedEntries(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(context.Background(), &buf, sample(), Options{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := strings.Join([]string{
		"aaaa",
		"    name: first",
		"    time: 2024-01-02T03:04:05Z",
		`    code: "\xc3"`,
		"bbbb",
		"    name: second",
		"    time: 2024-01-02T03:04:05Z",
		`    code: "\x90\xc3"`,
		"cccc",
		"    name: broken",
		"    time: 2024-01-02T03:04:05Z",
		"    code: <none>",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteShowsOrigin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.il")
	lib, err := cache.NewStore(nil).Open(path)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(context.Background(), &buf, lib, Options{}); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "il-lib-filename:\n    "+path+"\n"; got != want {
		t.Fatalf("listing=%q, want %q", got, want)
	}
}

func TestParseObjdump(t *testing.T) {
	out := `
/tmp/x/dump_lib.bin:     file format binary


Disassembly of section .data:

0000000000000000 <.data>:
   0:	89 f8                	mov    eax,edi
   2:	01 f0                	add    eax,esi
   4:	c3                   	ret
`
	got := parseObjdump(out)
	want := []string{
		"   0:\t89 f8                \tmov    eax,edi",
		"   2:\t01 f0                \tadd    eax,esi",
		"   4:\tc3                   \tret",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parseObjdump mismatch (-want +got):\n%s", diff)
	}
}

func TestDisassembleWithObjdump(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs GNU objdump with raw binary input")
	}
	tool := testutil.RequireTool(t, "objdump")

	lines, err := Disassemble(context.Background(), testutil.AddInt32(), Options{Objdump: tool, ScratchDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	for i, mnemonic := range []string{"mov", "add", "ret"} {
		if !strings.Contains(lines[i], mnemonic) {
			t.Fatalf("line %d=%q, want %s", i, lines[i], mnemonic)
		}
	}
}
