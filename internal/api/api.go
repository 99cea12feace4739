// Package api provides the internal implementation for the public il API.
// It ties the toolchain, the library cache, executable memory and binding
// together.
package api

import (
	"github.com/tinyrange/il/internal/abi"
	"github.com/tinyrange/il/internal/cache"
	"github.com/tinyrange/il/internal/execmem"
	"github.com/tinyrange/il/internal/toolchain"
)

// Common sentinel errors, re-exported from the packages that produce them.
var (
	ErrCompileFailed        = toolchain.ErrCompileFailed
	ErrDecompress           = cache.ErrDecompress
	ErrDeserialize          = cache.ErrDeserialize
	ErrUnsupportedOrigin    = cache.ErrUnsupportedOrigin
	ErrNotWritable          = cache.ErrNotWritable
	ErrAllocation           = execmem.ErrAllocation
	ErrEmptyCode            = execmem.ErrEmptyCode
	ErrUnsupportedPlatform  = execmem.ErrUnsupportedPlatform
	ErrUnsupportedPrototype = abi.ErrUnsupportedPrototype
	ErrArgument             = abi.ErrArgument
)
