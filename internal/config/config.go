// Package config loads the il.yaml file that selects toolchain programs and
// the default library.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/tinyrange/il/internal/toolchain"
	"gopkg.in/yaml.v3"
)

const Filename = "il.yaml"

const (
	ExtractorObjcopy = "objcopy"
	ExtractorObject  = "object"
)

// Config is the on-disk configuration. Zero fields take defaults.
type Config struct {
	Assembler      string   `yaml:"assembler"`
	AssemblerFlags []string `yaml:"assemblerFlags,omitempty"`
	// Extractor is "objcopy" or "object"; empty picks objcopy when installed.
	Extractor  string `yaml:"extractor,omitempty"`
	Objcopy    string `yaml:"objcopy"`
	Section    string `yaml:"section"`
	ScratchDir string `yaml:"scratchDir,omitempty"`
	Library    string `yaml:"library,omitempty"`

	Objdump      string `yaml:"objdump"`
	DisasmArch   string `yaml:"disasmArch"`
	DisasmSyntax string `yaml:"disasmSyntax"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	c.normalize()
	return c
}

func (c *Config) normalize() {
	if c.Assembler == "" {
		c.Assembler = "as"
	}
	if c.Objcopy == "" {
		c.Objcopy = "objcopy"
	}
	if c.Section == "" {
		c.Section = ".text"
	}
	if c.Objdump == "" {
		c.Objdump = "objdump"
	}
	if c.DisasmArch == "" {
		c.DisasmArch = "i386:x86-64"
	}
	if c.DisasmSyntax == "" {
		c.DisasmSyntax = "intel"
	}
}

// Load reads a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	switch c.Extractor {
	case "", ExtractorObjcopy, ExtractorObject:
	default:
		return Config{}, fmt.Errorf("parse %s: unknown extractor %q", path, c.Extractor)
	}
	c.normalize()
	return c, nil
}

// Write stores c at path.
func Write(path string, c Config) error {
	c.normalize()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&c); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Toolchain returns the assembler configuration described by c.
func (c Config) Toolchain(logger *slog.Logger) toolchain.Config {
	tc := toolchain.Config{
		Assembler:  c.Assembler,
		Flags:      c.AssemblerFlags,
		ScratchDir: c.ScratchDir,
		Logger:     logger,
	}
	switch c.Extractor {
	case ExtractorObjcopy:
		tc.Extractor = toolchain.Objcopy{Path: c.Objcopy, Section: c.Section}
	case ExtractorObject:
		tc.Extractor = toolchain.ObjectFile{Section: c.Section}
	default:
		// Use the configured objcopy when it can be found, else read the
		// object file in process.
		if path, err := exec.LookPath(c.Objcopy); err == nil {
			tc.Extractor = toolchain.Objcopy{Path: path, Section: c.Section}
		} else {
			tc.Extractor = toolchain.ObjectFile{Section: c.Section}
		}
	}
	return tc
}
