//go:build (darwin || freebsd || linux || netbsd || windows) && amd64

package abi

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// register points the func variable behind fptr at entry. purego panics on
// types it cannot marshal; that is reported as ErrUnsupportedPrototype.
func register(fptr any, entry uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnsupportedPrototype, r)
		}
	}()
	purego.RegisterFunc(fptr, entry)
	return nil
}
