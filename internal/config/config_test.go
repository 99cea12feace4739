package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tinyrange/il/internal/toolchain"
)

func TestDefault(t *testing.T) {
	c := Default()
	want := Config{
		Assembler:    "as",
		Objcopy:      "objcopy",
		Section:      ".text",
		Objdump:      "objdump",
		DisasmArch:   "i386:x86-64",
		DisasmSyntax: "intel",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("Default mismatch (-want +got):\n%s", diff)
	}
	switch x := c.Toolchain(nil).Extractor.(type) {
	case toolchain.Objcopy:
		if x.Section != ".text" {
			t.Fatalf("objcopy section=%q, want .text", x.Section)
		}
	case toolchain.ObjectFile:
		if x.Section != ".text" {
			t.Fatalf("object section=%q, want .text", x.Section)
		}
	default:
		t.Fatalf("default extractor=%T, want objcopy or object reader", x)
	}
}

func TestToolchainUsesConfiguredObjcopy(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs an executable shell script")
	}
	dir := t.TempDir()
	objcopy := filepath.Join(dir, "my-objcopy")
	if err := os.WriteFile(objcopy, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, Filename)
	data := "objcopy: " + objcopy + "\nsection: .text.hot\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := toolchain.Objcopy{Path: objcopy, Section: ".text.hot"}
	if diff := cmp.Diff(want, c.Toolchain(nil).Extractor); diff != "" {
		t.Fatalf("extractor mismatch (-want +got):\n%s", diff)
	}

	c.Objcopy = filepath.Join(dir, "missing-objcopy")
	fallback := toolchain.ObjectFile{Section: ".text.hot"}
	if diff := cmp.Diff(fallback, c.Toolchain(nil).Extractor); diff != "" {
		t.Fatalf("fallback extractor mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	data := "assembler: x86_64-w64-mingw32-as\nassemblerFlags: [--64]\nextractor: object\nlibrary: routines.il\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Assembler != "x86_64-w64-mingw32-as" || c.Library != "routines.il" {
		t.Fatalf("unexpected config %+v", c)
	}
	if diff := cmp.Diff([]string{"--64"}, c.AssemblerFlags); diff != "" {
		t.Fatalf("flags mismatch (-want +got):\n%s", diff)
	}
	if c.Objdump != "objdump" || c.Section != ".text" {
		t.Fatalf("defaults not applied: %+v", c)
	}

	tc := c.Toolchain(nil)
	if _, ok := tc.Extractor.(toolchain.ObjectFile); !ok {
		t.Fatalf("extractor=%T, want toolchain.ObjectFile", tc.Extractor)
	}
}

func TestLoadRejectsUnknownExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	if err := os.WriteFile(path, []byte("extractor: magic\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "magic") {
		t.Fatalf("Load err=%v, want unknown extractor", err)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	in := Config{Assembler: "/usr/bin/as", Extractor: ExtractorObjcopy, Library: "x.il"}
	if err := Write(path, in); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	in.normalize()
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
