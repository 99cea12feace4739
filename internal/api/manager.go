package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyrange/il/internal/abi"
	"github.com/tinyrange/il/internal/cache"
	"github.com/tinyrange/il/internal/execmem"
	"github.com/tinyrange/il/internal/toolchain"
)

// Manager compiles, caches, loads and binds routines. Each distinct source is
// compiled at most once per library, across runs when the library is backed
// by a file.
type Manager struct {
	mu       sync.Mutex
	logger   *slog.Logger
	compiler Compiler
	store    *cache.Store
	loader   func([]byte) (execmem.Block, error)
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	mc := parseOptions(opts)
	return &Manager{
		logger:   mc.logger,
		compiler: mc.compiler,
		store:    mc.store,
		loader:   mc.loader,
	}
}

// Store returns the library store used by m.
func (m *Manager) Store() *cache.Store {
	return m.store
}

// Compile returns the artifact for def, running the compiler only when the
// library holds no code for it. The artifact, including a failed one, is
// saved to the library's origin. A failed compile returns an error matching
// ErrCompileFailed.
func (m *Manager) Compile(ctx context.Context, def Definition) (*cache.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compile(ctx, def)
}

func (m *Manager) compile(ctx context.Context, def Definition) (*cache.Artifact, error) {
	lib, err := m.store.Resolve(def.Library)
	if err != nil {
		return nil, &Error{Op: "resolve library", Name: def.Name, Err: err}
	}

	key := cache.KeyOf(def.Source, def.Flags)
	if a, ok := lib.Get(key); ok && a.Compiled() {
		m.logger.Debug("cache hit", slog.String("name", def.Name), slog.String("key", string(key)))
		return a, nil
	}

	m.logger.Debug("compiling", slog.String("name", def.Name), slog.String("key", string(key)), slog.String("library", lib.Origin()))
	code, cerr := m.compiler.Compile(ctx, def.Source, def.Flags)
	if cerr != nil {
		code = nil
	} else if code == nil {
		cerr = fmt.Errorf("%w: compiler returned no code", toolchain.ErrCompileFailed)
	}

	a := lib.Put(&cache.Artifact{
		Key:       key,
		Name:      def.Name,
		Code:      code,
		CreatedAt: time.Now(),
	})

	if err := m.store.Save(lib, def.Library); err != nil {
		if errors.Is(err, cache.ErrUnsupportedOrigin) {
			return nil, &Error{Op: "save library", Name: def.Name, Err: err}
		}
		m.logger.Warn("library not saved", slog.String("library", lib.Origin()), slog.Any("err", err))
	}

	if !a.Compiled() {
		return nil, &Error{Op: "compile", Name: def.Name, Err: cerr}
	}
	return a, nil
}

// Define compiles def if needed, loads its code into executable memory and
// binds it to def.Prototype.
func (m *Manager) Define(ctx context.Context, def Definition) (*abi.Func, error) {
	if err := def.Prototype.Validate(); err != nil {
		return nil, &Error{Op: "define", Name: def.Name, Err: err}
	}

	block, err := m.load(ctx, def)
	if err != nil {
		return nil, err
	}

	fn, err := abi.Bind(block.Addr, def.Prototype)
	if err != nil {
		return nil, &Error{Op: "bind", Name: def.Name, Err: err}
	}
	return fn, nil
}

// DefineTo is like Define but binds the func variable fptr points to, taking
// the prototype from its Go type. def.Prototype is ignored.
func (m *Manager) DefineTo(ctx context.Context, def Definition, fptr any) error {
	if _, err := abi.FuncPrototype(fptr); err != nil {
		return &Error{Op: "define", Name: def.Name, Err: err}
	}

	block, err := m.load(ctx, def)
	if err != nil {
		return err
	}

	if err := abi.BindTo(fptr, block.Addr); err != nil {
		return &Error{Op: "bind", Name: def.Name, Err: err}
	}
	return nil
}

func (m *Manager) load(ctx context.Context, def Definition) (execmem.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.compile(ctx, def)
	if err != nil {
		return execmem.Block{}, err
	}

	block, err := m.loader(a.Code)
	if err != nil {
		return execmem.Block{}, &Error{Op: "load", Name: def.Name, Err: err}
	}
	m.logger.Debug("loaded routine", slog.String("name", def.Name), slog.Int("bytes", block.Len))
	return block, nil
}
