//go:build !((darwin || freebsd || linux || netbsd || windows) && amd64)

package abi

func register(any, uintptr) error {
	return ErrUnsupportedPlatform
}
