package tempdir

import "os"

// FS is the filesystem surface the package needs. It exists so tests can
// substitute a failing or recording filesystem; production code uses OSFS.
type FS interface {
	// MkdirAll creates path and any missing ancestors.
	MkdirAll(path string) error
	// RemoveAll deletes path and everything under it.
	RemoveAll(path string) error
	// Exists reports whether path exists.
	Exists(path string) bool
	// TempRoot returns the platform's standard temporary directory.
	TempRoot() string
}

// OSFS implements FS with direct calls to the operating system.
type OSFS struct{}

// MkdirAll creates path with 0700 permissions so scratch contents are not
// readable by other local users.
func (OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0700)
}

// RemoveAll deletes path and its contents.
func (OSFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Exists reports whether path exists.
func (OSFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TempRoot returns the operating system's temporary directory.
func (OSFS) TempRoot() string {
	return os.TempDir()
}
