package api

import (
	"context"

	"github.com/tinyrange/il/internal/abi"
)

// Compiler turns assembly source into machine code.
type Compiler interface {
	Compile(ctx context.Context, source string, flags []string) ([]byte, error)
}

// Definition describes one routine to compile and bind.
type Definition struct {
	// Name is recorded with the artifact for diagnostics.
	Name string
	// Source is the assembly text.
	Source string
	// Flags are passed to the assembler and are part of the cache key.
	Flags []string
	// Prototype describes how to call the routine.
	Prototype abi.Prototype
	// Library selects the cache: nil for a library next to the calling
	// source file, a file path, or a *cache.Library.
	Library any
}

// Option configures a Manager.
type Option interface {
	IsOption()
}

// Error represents an operation error with structured information.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Name != "" {
		return e.Op + " " + e.Name + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
