// Package cache implements the persistent, content-addressed library of
// compiled machine code fragments.
package cache

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Key identifies an artifact by the hash of the source it was built from.
type Key string

// KeyOf returns the key for source assembled with flags. With no flags the
// key is the SHA-1 of the source text alone. Otherwise the source and each
// flag are hashed behind their lengths, so moving bytes between them
// changes the key.
func KeyOf(source string, flags []string) Key {
	h := sha1.New()
	if len(flags) == 0 {
		h.Write([]byte(source))
		return Key(hex.EncodeToString(h.Sum(nil)))
	}
	for _, part := range append([]string{source}, flags...) {
		binary.Write(h, binary.LittleEndian, uint64(len(part)))
		h.Write([]byte(part))
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// Artifact is a compiled routine. Code is nil when compilation failed.
type Artifact struct {
	Key       Key
	Name      string
	Code      []byte
	CreatedAt time.Time
}

// Compiled reports whether the artifact carries machine code.
func (a *Artifact) Compiled() bool {
	return a != nil && a.Code != nil
}
