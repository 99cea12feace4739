package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrDecompress reports a library file that is not a valid zlib stream.
	ErrDecompress = errors.New("library decompression failed")
	// ErrDeserialize reports a library file whose payload is not a library mapping.
	ErrDeserialize = errors.New("library deserialization failed")
)

const (
	metaPrefix = "il-"
	// originMarker records the path a library was saved to.
	originMarker = metaPrefix + "lib-filename"
)

type record struct {
	Name string    `msgpack:"name"`
	Code []byte    `msgpack:"code"`
	Time time.Time `msgpack:"time"`
}

func encodeLibrary(origin string, entries map[Key]*Artifact) ([]byte, error) {
	m := make(map[string]any, len(entries)+1)
	for k, a := range entries {
		m[string(k)] = record{Name: a.Name, Code: a.Code, Time: a.CreatedAt}
	}
	if origin != "" {
		m[originMarker] = origin
	}

	var payload bytes.Buffer
	enc := msgpack.NewEncoder(&payload)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode library: %w", err)
	}

	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(payload.Bytes()); err != nil {
		return nil, fmt.Errorf("compress library: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress library: %w", err)
	}
	return out.Bytes(), nil
}

// decodeLibrary parses a library file. The returned metadata holds the il-
// prefixed entries as strings.
func decodeLibrary(data []byte) (map[Key]*Artifact, map[string]string, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	if err := zr.Close(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}

	var raw map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(payload, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDeserialize, err)
	}

	entries := make(map[Key]*Artifact, len(raw))
	meta := make(map[string]string)
	for k, v := range raw {
		if strings.HasPrefix(k, metaPrefix) {
			var s string
			if err := msgpack.Unmarshal(v, &s); err != nil {
				return nil, nil, fmt.Errorf("%w: entry %q: %v", ErrDeserialize, k, err)
			}
			meta[k] = s
			continue
		}
		var rec record
		if err := msgpack.Unmarshal(v, &rec); err != nil {
			return nil, nil, fmt.Errorf("%w: entry %q: %v", ErrDeserialize, k, err)
		}
		entries[Key(k)] = &Artifact{
			Key:       Key(k),
			Name:      rec.Name,
			Code:      rec.Code,
			CreatedAt: rec.Time,
		}
	}
	return entries, meta, nil
}
