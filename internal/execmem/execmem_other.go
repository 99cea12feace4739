//go:build !amd64 || !(unix || windows)

package execmem

func load([]byte) (uintptr, error) {
	return 0, ErrUnsupportedPlatform
}
