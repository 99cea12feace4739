package cache

import (
	"sort"
	"sync"
)

// Library maps keys to artifacts. A library with an empty origin lives only
// in memory.
type Library struct {
	mu      sync.Mutex
	origin  string
	entries map[Key]*Artifact
}

// NewLibrary returns an empty in-memory library.
func NewLibrary() *Library {
	return newLibrary("")
}

func newLibrary(origin string) *Library {
	return &Library{
		origin:  origin,
		entries: make(map[Key]*Artifact),
	}
}

// Origin returns the backing file path, or "" for an in-memory library.
func (l *Library) Origin() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.origin
}

// bind gives an in-memory library a backing file. It reports false when
// the library already has one.
func (l *Library) bind(origin string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.origin != "" {
		return false
	}
	l.origin = origin
	return true
}

// Get returns the artifact stored under key.
func (l *Library) Get(key Key) (*Artifact, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.entries[key]
	return a, ok
}

// Put stores a under a.Key and returns the artifact now held for that key.
// An artifact that already carries code is never replaced.
func (l *Library) Put(a *Artifact) *Artifact {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.entries[a.Key]; ok && cur.Compiled() {
		return cur
	}
	l.entries[a.Key] = a
	return a
}

// Len returns the number of artifacts.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Keys returns all keys in ascending order.
func (l *Library) Keys() []Key {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]Key, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// merge adds artifacts from other that l does not know about and reports how
// many were added.
func (l *Library) merge(other map[Key]*Artifact) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	added := 0
	for k, a := range other {
		if cur, ok := l.entries[k]; ok && (cur.Compiled() || !a.Compiled()) {
			continue
		}
		l.entries[k] = a
		added++
	}
	return added
}

func (l *Library) snapshot() (string, map[Key]*Artifact) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Key]*Artifact, len(l.entries))
	for k, a := range l.entries {
		out[k] = a
	}
	return l.origin, out
}
