package toolchain

import (
	"bytes"
	"context"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Extractor reads the raw bytes of the code section of an object file.
// scratch is a directory the extractor may use for intermediate files.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, object, scratch string) ([]byte, error)
}

// DefaultExtractor returns objcopy when it is installed and the in-process
// object reader otherwise.
func DefaultExtractor() Extractor {
	if path, err := exec.LookPath("objcopy"); err == nil {
		return Objcopy{Path: path}
	}
	return ObjectFile{}
}

// Objcopy dumps a section with GNU objcopy -O binary.
type Objcopy struct {
	Path    string // default "objcopy"
	Section string // default ".text"
}

var _ Extractor = Objcopy{}

func (o Objcopy) Name() string {
	if o.Path == "" {
		return "objcopy"
	}
	return o.Path
}

func (o Objcopy) Extract(ctx context.Context, object, scratch string) ([]byte, error) {
	section := o.Section
	if section == "" {
		section = ".text"
	}
	out := filepath.Join(scratch, "bin")
	defer os.Remove(out)

	cmd := exec.CommandContext(ctx, o.Name(), "-Obinary", "-j"+section, object, out)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return nil, &CompileError{Tool: o.Name(), Output: output.String(), Err: err}
	}

	code, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read extracted section: %w", err)
	}
	return code, nil
}

// ObjectFile reads the code section directly from ELF, PE/COFF or Mach-O
// objects.
type ObjectFile struct {
	// Section overrides the section name (".text" for ELF and PE,
	// "__text" for Mach-O).
	Section string
}

var _ Extractor = ObjectFile{}

func (ObjectFile) Name() string { return "object reader" }

func (x ObjectFile) Extract(_ context.Context, object, _ string) ([]byte, error) {
	if f, err := elf.Open(object); err == nil {
		defer f.Close()
		s := f.Section(x.name(".text"))
		if s == nil {
			return nil, fmt.Errorf("elf object has no %s section", x.name(".text"))
		}
		return s.Data()
	}

	if f, err := pe.Open(object); err == nil {
		defer f.Close()
		s := f.Section(x.name(".text"))
		if s == nil {
			return nil, fmt.Errorf("coff object has no %s section", x.name(".text"))
		}
		data, err := s.Data()
		if err != nil {
			return nil, err
		}
		// Raw data is padded to the file alignment.
		if s.VirtualSize > 0 && int(s.VirtualSize) < len(data) {
			data = data[:s.VirtualSize]
		}
		return data, nil
	}

	if f, err := macho.Open(object); err == nil {
		defer f.Close()
		name := x.name("__text")
		if name == ".text" {
			name = "__text"
		}
		s := f.Section(name)
		if s == nil {
			return nil, fmt.Errorf("mach-o object has no %s section", name)
		}
		return s.Data()
	}

	return nil, errors.New("unrecognised object file format")
}

func (x ObjectFile) name(def string) string {
	if x.Section != "" {
		return x.Section
	}
	return def
}
