// Package il runs small assembly routines from Go. Source text is assembled
// once with the GNU toolchain, the machine code is cached in a library file
// keyed by a hash of the source, and the code is loaded into executable
// memory and bound to a Go callable with an explicit prototype.
//
// The routine must follow the calling convention of the running platform:
// System V AMD64 on Linux, macOS and the BSDs, Microsoft x64 on Windows.
// Arguments arrive in different registers and different registers must be
// preserved, see Family. A routine that does not match its prototype has
// undefined behaviour when called.
//
// Loaded code is never unmapped.
package il

import (
	"log/slog"

	"github.com/tinyrange/il/internal/abi"
	"github.com/tinyrange/il/internal/api"
	"github.com/tinyrange/il/internal/cache"
	"github.com/tinyrange/il/internal/config"
	"github.com/tinyrange/il/internal/execmem"
)

// -----------------------------------------------------------------------------
// Type Aliases - These re-export types from internal packages
// -----------------------------------------------------------------------------

// Manager compiles, caches, loads and binds routines.
type Manager = api.Manager

// Definition describes a routine: name, source, assembler flags, prototype
// and library.
type Definition = api.Definition

// Compiler turns assembly source into machine code.
type Compiler = api.Compiler

// Option configures a Manager.
type Option = api.Option

// Error represents an il operation error with structured information.
type Error = api.Error

// Func is a routine bound to a prototype.
type Func = abi.Func

// Prototype declares the parameter and result kinds of a routine.
type Prototype = abi.Prototype

// Kind is the type of a parameter or result.
type Kind = abi.Kind

// Family is a platform calling convention.
type Family = abi.Family

// Library is a set of compiled artifacts bound to an origin.
type Library = cache.Library

// Artifact is a compiled routine.
type Artifact = cache.Artifact

// Store resolves and saves libraries.
type Store = cache.Store

// Config selects toolchain programs.
type Config = config.Config

// Block is a region of executable memory.
type Block = execmem.Block

// Parameter and result kinds.
const (
	Void    = abi.Void
	Bool    = abi.Bool
	Int8    = abi.Int8
	Int16   = abi.Int16
	Int32   = abi.Int32
	Int64   = abi.Int64
	Uint8   = abi.Uint8
	Uint16  = abi.Uint16
	Uint32  = abi.Uint32
	Uint64  = abi.Uint64
	Uintptr = abi.Uintptr
	Float32 = abi.Float32
	Float64 = abi.Float64
	Pointer = abi.Pointer
)

// Calling conventions.
const (
	SystemV = abi.SystemV
	Win64   = abi.Win64
)

// Common sentinel errors.
var (
	ErrCompileFailed        = api.ErrCompileFailed
	ErrDecompress           = api.ErrDecompress
	ErrDeserialize          = api.ErrDeserialize
	ErrUnsupportedOrigin    = api.ErrUnsupportedOrigin
	ErrNotWritable          = api.ErrNotWritable
	ErrAllocation           = api.ErrAllocation
	ErrEmptyCode            = api.ErrEmptyCode
	ErrUnsupportedPlatform  = api.ErrUnsupportedPlatform
	ErrUnsupportedPrototype = api.ErrUnsupportedPrototype
	ErrArgument             = api.ErrArgument
)

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

// New creates a Manager. Without options it runs "as" from PATH, logs to
// stderr and keeps its own library store.
func New(opts ...Option) *Manager {
	return api.New(opts...)
}

// Proto builds a prototype, result first, like a C function type.
func Proto(result Kind, params ...Kind) Prototype {
	return abi.Proto(result, params...)
}

// NewLibrary returns an empty in-memory library.
func NewLibrary() *Library {
	return cache.NewLibrary()
}

// NewStore creates a library store that can be shared between managers.
func NewStore(logger *slog.Logger) *Store {
	return cache.NewStore(logger)
}

// LoadConfig reads an il.yaml configuration file.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// ActiveFamily returns the calling convention of the running platform.
func ActiveFamily() Family {
	return abi.ActiveFamily()
}

// Bind binds code already loaded at entry to proto.
func Bind(entry uintptr, proto Prototype) (*Func, error) {
	return abi.Bind(entry, proto)
}

// Load copies code into executable memory.
func Load(code []byte) (Block, error) {
	return execmem.Load(code)
}

// -----------------------------------------------------------------------------
// Manager Options
// -----------------------------------------------------------------------------

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return api.WithLogger(l) }

// WithCompiler replaces the external assembler.
func WithCompiler(c Compiler) Option { return api.WithCompiler(c) }

// WithStore shares a library store.
func WithStore(s *Store) Option { return api.WithStore(s) }

// WithConfig configures the default toolchain.
func WithConfig(c Config) Option { return api.WithConfig(c) }
