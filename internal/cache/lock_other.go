//go:build !unix && !windows

package cache

// lockFile is a no-op where no advisory locking primitive is available;
// concurrent writers from separate processes are not coordinated there.
func lockFile(path string) (func(), error) {
	return func() {}, nil
}
