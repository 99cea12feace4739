package cache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrUnsupportedOrigin reports an origin that is neither unset, a path,
	// a *Library nor (for Save) an io.Writer.
	ErrUnsupportedOrigin = errors.New("unsupported library origin")
	// ErrNotWritable reports a save destination that cannot be written.
	ErrNotWritable = errors.New("library destination not writable")
)

// Store resolves library origins and keeps every library it has loaded so
// the same origin always yields the same *Library.
type Store struct {
	logger *slog.Logger

	mu   sync.Mutex
	libs map[string]*Library
}

// NewStore creates a store. A nil logger discards log output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		logger: logger,
		libs:   make(map[string]*Library),
	}
}

// Resolve returns the library for target: nil or "" selects the default origin
// of the calling source file, a string names a library file and a *Library
// is used directly.
func (s *Store) Resolve(target any) (*Library, error) {
	switch v := target.(type) {
	case nil:
		return s.Open(CallerOrigin())
	case string:
		if v == "" {
			return s.Open(CallerOrigin())
		}
		return s.Open(v)
	case *Library:
		if v == nil {
			return nil, fmt.Errorf("%w: nil *Library", ErrUnsupportedOrigin)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedOrigin, target)
	}
}

// Open returns the library stored at path, loading it on first use.
func (s *Store) Open(path string) (*Library, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve library path %q: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if lib, ok := s.libs[abs]; ok {
		return lib, nil
	}

	lib, err := s.load(abs)
	if err != nil {
		return nil, err
	}
	s.libs[abs] = lib
	return lib, nil
}

func (s *Store) load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Debug("library not readable, starting empty", slog.String("path", path), slog.Any("err", err))
		// Leave an empty file behind so a later save finds a writable target.
		if f, cerr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644); cerr == nil {
			_ = f.Close()
		}
		return newLibrary(path), nil
	}

	lib := newLibrary(path)
	if len(data) == 0 {
		return lib, nil
	}

	entries, _, err := decodeLibrary(data)
	if err != nil {
		return nil, fmt.Errorf("invalid library %q: %w", path, err)
	}
	lib.entries = entries
	s.logger.Debug("loaded library", slog.String("path", path), slog.Int("entries", len(entries)))
	return lib, nil
}

// Save persists lib. A nil target saves to the library's own origin, a
// string to that path, a *Library to that library's origin and an io.Writer
// receives the encoded bytes. Saving an in-memory library without a path is
// a no-op.
func (s *Store) Save(lib *Library, target any) error {
	switch v := target.(type) {
	case nil:
		return s.saveOrigin(lib, lib.Origin())
	case string:
		if v == "" {
			return s.saveOrigin(lib, lib.Origin())
		}
		return s.saveOrigin(lib, v)
	case *Library:
		if v == nil {
			return fmt.Errorf("%w: nil *Library", ErrUnsupportedOrigin)
		}
		return s.saveOrigin(lib, v.Origin())
	case io.Writer:
		origin, entries := lib.snapshot()
		data, err := encodeLibrary(origin, entries)
		if err != nil {
			return err
		}
		if _, err := v.Write(data); err != nil {
			return fmt.Errorf("write library: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedOrigin, target)
	}
}

func (s *Store) saveOrigin(lib *Library, path string) error {
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve library path %q: %w", path, err)
	}

	origin := lib.Origin()
	if err := s.writeFile(lib, abs, abs == origin); err != nil {
		return err
	}

	// An in-memory library saved to a path is backed by it from now on,
	// unless another library already owns that path.
	if origin == "" {
		s.mu.Lock()
		if _, ok := s.libs[abs]; !ok && lib.bind(abs) {
			s.libs[abs] = lib
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *Store) mergeFromDisk(lib *Library, path string) {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return
	}
	onDisk, _, err := decodeLibrary(data)
	if err != nil {
		s.logger.Warn("overwriting unreadable library", slog.String("path", path), slog.Any("err", err))
		return
	}
	if n := lib.merge(onDisk); n > 0 {
		s.logger.Debug("merged concurrent library entries", slog.String("path", path), slog.Int("entries", n))
	}
}

func (s *Store) writeFile(lib *Library, path string, merge bool) error {
	unlock, err := lockFile(path + ".lock")
	if err != nil {
		return notWritable(path, err)
	}
	defer unlock()

	// Pick up entries another process saved to lib's own file since we
	// loaded it. Any other destination is simply replaced.
	if merge {
		s.mergeFromDisk(lib, path)
	}

	_, entries := lib.snapshot()
	data, err := encodeLibrary(path, entries)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return notWritable(path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write library %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close library %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return notWritable(path, err)
	}

	s.logger.Debug("saved library", slog.String("path", path), slog.Int("entries", len(entries)))
	return nil
}

func notWritable(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, path, err)
	}
	return fmt.Errorf("save library %q: %w", path, err)
}
