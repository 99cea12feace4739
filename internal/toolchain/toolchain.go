// Package toolchain turns assembly source into raw machine code by running an
// external assembler and extracting the code section of the object it writes.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrCompileFailed is matched by every error Compile returns.
var ErrCompileFailed = errors.New("compile failed")

// CompileError describes a failed toolchain step.
type CompileError struct {
	Tool   string
	Output string
	Err    error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *CompileError) Unwrap() []error {
	return []error{ErrCompileFailed, e.Err}
}

// Config selects the tools an Assembler runs.
type Config struct {
	// Assembler is the GNU-compatible assembler, "as" by default.
	Assembler string
	// Flags are passed to every assembler invocation before per-call flags.
	Flags []string
	// Extractor pulls the code section out of the object file. When nil,
	// objcopy is used if it is on PATH, otherwise the object is parsed
	// in-process.
	Extractor Extractor
	// ScratchDir is the parent of the per-compile temporary directories.
	ScratchDir string
	Logger     *slog.Logger
}

// Assembler compiles assembly source with an external toolchain.
type Assembler struct {
	path       string
	flags      []string
	extractor  Extractor
	scratchDir string
	logger     *slog.Logger
}

// New creates an Assembler from cfg.
func New(cfg Config) *Assembler {
	a := &Assembler{
		path:       cfg.Assembler,
		flags:      append([]string(nil), cfg.Flags...),
		extractor:  cfg.Extractor,
		scratchDir: cfg.ScratchDir,
		logger:     cfg.Logger,
	}
	if a.path == "" {
		a.path = "as"
	}
	if a.extractor == nil {
		a.extractor = DefaultExtractor()
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a
}

// Compile assembles source and returns the bytes of its code section. All
// failures, including a missing assembler, match ErrCompileFailed.
func (a *Assembler) Compile(ctx context.Context, source string, flags []string) ([]byte, error) {
	dir, err := os.MkdirTemp(a.scratchDir, "il-*")
	if err != nil {
		return nil, &CompileError{Tool: a.path, Err: fmt.Errorf("create scratch dir: %w", err)}
	}
	defer os.RemoveAll(dir)

	obj := filepath.Join(dir, "asmout.o")
	args := []string{"-o", obj}
	args = append(args, a.flags...)
	args = append(args, flags...)

	cmd := exec.CommandContext(ctx, a.path, args...)
	cmd.Stdin = strings.NewReader(source)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	a.logger.Debug("running assembler", slog.String("tool", a.path), slog.Any("args", args))
	if err := cmd.Run(); err != nil {
		return nil, &CompileError{Tool: a.path, Output: output.String(), Err: err}
	}

	code, err := a.extractor.Extract(ctx, obj, dir)
	if err != nil {
		var cerr *CompileError
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, &CompileError{Tool: a.extractor.Name(), Err: err}
	}
	if len(code) == 0 {
		return nil, &CompileError{Tool: a.extractor.Name(), Err: errors.New("object has no code")}
	}

	a.logger.Debug("assembled", slog.Int("bytes", len(code)))
	return code, nil
}
