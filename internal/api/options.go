package api

import (
	"log/slog"
	"os"

	"github.com/tinyrange/il/internal/cache"
	"github.com/tinyrange/il/internal/config"
	"github.com/tinyrange/il/internal/execmem"
	"github.com/tinyrange/il/internal/toolchain"
)

// managerConfig holds parsed manager options.
type managerConfig struct {
	logger   *slog.Logger
	compiler Compiler
	store    *cache.Store
	loader   func([]byte) (execmem.Block, error)
	cfg      *config.Config
}

func parseOptions(opts []Option) managerConfig {
	var mc managerConfig
	for _, opt := range opts {
		switch o := opt.(type) {
		case interface{ Logger() *slog.Logger }:
			mc.logger = o.Logger()
		case interface{ Compiler() Compiler }:
			mc.compiler = o.Compiler()
		case interface{ Store() *cache.Store }:
			mc.store = o.Store()
		case interface {
			Loader() func([]byte) (execmem.Block, error)
		}:
			mc.loader = o.Loader()
		case interface{ Config() config.Config }:
			c := o.Config()
			mc.cfg = &c
		}
	}

	if mc.logger == nil {
		mc.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	if mc.store == nil {
		mc.store = cache.NewStore(mc.logger)
	}
	if mc.loader == nil {
		mc.loader = execmem.Load
	}
	if mc.compiler == nil {
		cfg := config.Default()
		if mc.cfg != nil {
			cfg = *mc.cfg
		}
		mc.compiler = toolchain.New(cfg.Toolchain(mc.logger))
	}
	return mc
}

type loggerOption struct{ l *slog.Logger }

func (loggerOption) IsOption()              {}
func (o loggerOption) Logger() *slog.Logger { return o.l }

// WithLogger sets the logger. The default writes INFO and above to stderr.
func WithLogger(l *slog.Logger) Option { return loggerOption{l} }

type compilerOption struct{ c Compiler }

func (compilerOption) IsOption()            {}
func (o compilerOption) Compiler() Compiler { return o.c }

// WithCompiler replaces the external toolchain.
func WithCompiler(c Compiler) Option { return compilerOption{c} }

type storeOption struct{ s *cache.Store }

func (storeOption) IsOption()             {}
func (o storeOption) Store() *cache.Store { return o.s }

// WithStore shares a library store between managers.
func WithStore(s *cache.Store) Option { return storeOption{s} }

type loaderOption struct {
	fn func([]byte) (execmem.Block, error)
}

func (loaderOption) IsOption()                                     {}
func (o loaderOption) Loader() func([]byte) (execmem.Block, error) { return o.fn }

// WithLoader replaces the executable memory loader.
func WithLoader(fn func([]byte) (execmem.Block, error)) Option { return loaderOption{fn} }

type configOption struct{ c config.Config }

func (configOption) IsOption()               {}
func (o configOption) Config() config.Config { return o.c }

// WithConfig builds the default toolchain from c. It has no effect when
// WithCompiler is also given.
func WithConfig(c config.Config) Option { return configOption{c} }
