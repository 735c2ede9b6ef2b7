// Package tempdirtest provides a testing fixture around a tempdir.Dir.
package tempdirtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ospiem/scratch/tempdir"
)

// Fixture is a scratch directory tied to a test's lifetime. The directory
// is named after the test and removed when the test finishes.
type Fixture struct {
	t   testing.TB
	dir *tempdir.Dir
}

// New creates a Fixture under the system temp root and registers its
// cleanup with t.
func New(t testing.TB) *Fixture {
	t.Helper()

	// test names may contain path separators from subtests
	prefix := strings.NewReplacer("/", "_", "\\", "_").Replace(t.Name())
	d, err := tempdir.New(tempdir.Config{Prefix: prefix})
	if err != nil {
		t.Fatalf("creating scratch dir: %v", err)
	}

	f := &Fixture{t: t, dir: d}
	t.Cleanup(func() {
		d.Release(nil)
	})
	return f
}

// Path returns the fixture directory's absolute path.
func (f *Fixture) Path() string {
	return f.dir.Path()
}

// JoinPath joins elements onto the fixture directory.
func (f *Fixture) JoinPath(elem ...string) string {
	return filepath.Join(append([]string{f.dir.Path()}, elem...)...)
}

// WriteFile writes contents to rel inside the fixture, creating parent
// directories as needed.
func (f *Fixture) WriteFile(rel, contents string) string {
	f.t.Helper()

	full := f.JoinPath(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0700); err != nil {
		f.t.Fatalf("creating parent of %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(contents), 0600); err != nil {
		f.t.Fatalf("writing %s: %v", rel, err)
	}
	return full
}

// MkdirAll creates rel (and missing parents) inside the fixture.
func (f *Fixture) MkdirAll(rel string) string {
	f.t.Helper()

	full := f.JoinPath(rel)
	if err := os.MkdirAll(full, 0700); err != nil {
		f.t.Fatalf("creating %s: %v", rel, err)
	}
	return full
}
