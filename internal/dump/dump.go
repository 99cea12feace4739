// Package dump renders the contents of a library for humans.
package dump

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tinyrange/il/internal/cache"
)

// Options controls the listing.
type Options struct {
	// Disassemble runs Objdump over each artifact instead of printing raw
	// bytes.
	Disassemble bool
	Objdump     string // default "objdump"
	Arch        string // default "i386:x86-64"
	Syntax      string // default "intel"
	ScratchDir  string
}

func (o *Options) normalize() {
	if o.Objdump == "" {
		o.Objdump = "objdump"
	}
	if o.Arch == "" {
		o.Arch = "i386:x86-64"
	}
	if o.Syntax == "" {
		o.Syntax = "intel"
	}
}

// Write lists the artifacts of lib sorted by key, followed by the library
// origin.
func Write(ctx context.Context, w io.Writer, lib *cache.Library, opts Options) error {
	opts.normalize()
	bw := bufio.NewWriter(w)

	for _, key := range lib.Keys() {
		a, _ := lib.Get(key)
		fmt.Fprintf(bw, "%s\n", key)
		fmt.Fprintf(bw, "    name: %s\n", a.Name)
		fmt.Fprintf(bw, "    time: %s\n", a.CreatedAt.Format(time.RFC3339Nano))

		switch {
		case !a.Compiled():
			fmt.Fprintf(bw, "    code: <none>\n")
		case opts.Disassemble:
			lines, err := Disassemble(ctx, a.Code, opts)
			if err != nil {
				return fmt.Errorf("disassemble %s: %w", key, err)
			}
			fmt.Fprintf(bw, "    code:\n")
			for _, line := range lines {
				fmt.Fprintf(bw, "%s\n", line)
			}
		default:
			fmt.Fprintf(bw, "    code: %q\n", a.Code)
		}
	}

	if origin := lib.Origin(); origin != "" {
		fmt.Fprintf(bw, "il-lib-filename:\n    %s\n", origin)
	}
	return bw.Flush()
}

// Disassemble runs objdump over raw code and returns the instruction lines.
func Disassemble(ctx context.Context, code []byte, opts Options) ([]string, error) {
	opts.normalize()

	dir, err := os.MkdirTemp(opts.ScratchDir, "il-dump-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	bin := filepath.Join(dir, "dump_lib.bin")
	if err := os.WriteFile(bin, code, 0o644); err != nil {
		return nil, fmt.Errorf("write code: %w", err)
	}

	cmd := exec.CommandContext(ctx, opts.Objdump, "-b", "binary", "-D", "-m", opts.Arch, "-M", opts.Syntax, bin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w\n%s", opts.Objdump, err, strings.TrimSpace(stderr.String()))
	}
	return parseObjdump(string(out)), nil
}

// parseObjdump keeps the non-empty lines following the "<.data>:" label.
func parseObjdump(out string) []string {
	var lines []string
	started := false
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !started {
			started = strings.HasSuffix(line, "<.data>:")
			continue
		}
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
