// Package tempdir manages scoped temporary directories with policy-driven
// cleanup. A Dir owns exactly one uniquely named directory under a root,
// exposes its path, and removes it when the owning scope ends:
//
//	func doWork() (err error) {
//		d, err := tempdir.New(tempdir.Config{Cleanup: tempdir.CleanupOnSuccess})
//		if err != nil {
//			return err
//		}
//		defer d.Release(&err)
//		// ... work inside d.Path() ...
//		return nil
//	}
package tempdir

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Policy controls whether the directory is deleted at scope exit.
type Policy int

const (
	// CleanupAlways deletes the directory unconditionally.
	CleanupAlways Policy = iota
	// CleanupOnSuccess deletes the directory only when the owning scope
	// exits without an error.
	CleanupOnSuccess
	// CleanupNever keeps the directory.
	CleanupNever
)

// String returns the policy name as used in flags and config files.
func (p Policy) String() string {
	switch p {
	case CleanupAlways:
		return "always"
	case CleanupOnSuccess:
		return "on-success"
	case CleanupNever:
		return "never"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name as used in flags and config files.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "always":
		return CleanupAlways, nil
	case "on-success":
		return CleanupOnSuccess, nil
	case "never":
		return CleanupNever, nil
	default:
		return CleanupAlways, fmt.Errorf("unknown cleanup policy: %q (want always, on-success or never)", s)
	}
}

// LogFunc receives one human-readable lifecycle line. A nil LogFunc
// discards lines.
type LogFunc func(string)

// LogToStdout writes lifecycle lines to standard output.
func LogToStdout(line string) {
	fmt.Fprintln(os.Stdout, line)
}

// DefaultPrefix is the directory-name prefix used when Config.Prefix is
// empty.
const DefaultPrefix = "temp_dir"

// Config holds construction options for a Dir. The zero value is usable:
// system temp root, CleanupAlways, DefaultPrefix, no logging. A Dir
// captures its Config at construction; later changes to a Config value
// only affect directories constructed afterward.
type Config struct {
	// RootPath is the directory under which the new directory is created.
	// Empty means the filesystem provider's temp root.
	RootPath string
	// Cleanup governs automatic deletion at scope exit.
	Cleanup Policy
	// Prefix is prepended to the generated directory name.
	// Empty means DefaultPrefix.
	Prefix string
	// Log receives lifecycle lines. Nil discards them.
	Log LogFunc
	// FS is the filesystem provider. Nil means the operating system.
	FS FS
}

// WithRootPath returns a copy of the config with the root path set.
func (c Config) WithRootPath(root string) Config {
	c.RootPath = root
	return c
}

// WithCleanup returns a copy of the config with the cleanup policy set.
func (c Config) WithCleanup(p Policy) Config {
	c.Cleanup = p
	return c
}

// WithPrefix returns a copy of the config with the name prefix set.
func (c Config) WithPrefix(prefix string) Config {
	c.Prefix = prefix
	return c
}

// WithLogging returns a copy of the config logging to fn, or to standard
// output when fn is nil.
func (c Config) WithLogging(fn LogFunc) Config {
	if fn == nil {
		fn = LogToStdout
	}
	c.Log = fn
	return c
}

// Error is the classified error for failed directory operations. It
// carries the underlying filesystem error's rendered text, not the error
// itself; callers distinguish construction from cleanup failures by call
// site.
type Error struct {
	// Cause is the underlying error's text, verbatim.
	Cause string
}

func (e *Error) Error() string {
	return "TempDirError: " + e.Cause
}

func classify(err error) *Error {
	return &Error{Cause: err.Error()}
}

// Dir owns one temporary directory. Ownership is exclusive: exactly one
// handle is responsible for cleanup at any time (see Transfer). Dir is not
// safe for concurrent use.
type Dir struct {
	path     string
	cfg      Config
	fs       FS
	released bool
}

// New creates a uniquely named directory under cfg.RootPath and returns
// the owning handle. On failure the classified error is returned and no
// handle is produced.
func New(cfg Config) (*Dir, error) {
	fsys := cfg.FS
	if fsys == nil {
		fsys = OSFS{}
	}
	root := cfg.RootPath
	if root == "" {
		root = fsys.TempRoot()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	path := filepath.Join(root, generateName(prefix))
	if err := fsys.MkdirAll(path); err != nil {
		logTo(cfg.Log, "TempDir creation of '"+path+"' failed. Error: "+err.Error())
		return nil, classify(err)
	}
	logTo(cfg.Log, "TempDir create '"+path+"'")

	return &Dir{path: path, cfg: cfg, fs: fsys}, nil
}

// NewIn creates a directory under root with default policy and prefix.
func NewIn(root string) (*Dir, error) {
	return New(Config{RootPath: root})
}

// NewWithCleanup creates a directory under the system temp root with the
// given cleanup policy.
func NewWithCleanup(p Policy) (*Dir, error) {
	return New(Config{Cleanup: p})
}

// NewInWithCleanup creates a directory under root with the given cleanup
// policy.
func NewInWithCleanup(root string, p Policy) (*Dir, error) {
	return New(Config{RootPath: root, Cleanup: p})
}

// Path returns the absolute path of the directory. It stays valid for the
// handle's whole lifetime, including after the directory is removed.
func (d *Dir) Path() string {
	return d.path
}

// Cleanup removes the directory according to the configured policy and
// returns any removal error. scopeErr signals how the owning scope is
// exiting: nil means success, non-nil makes CleanupOnSuccess keep the
// directory. Cleanup is idempotent: once the directory is gone (or the
// handle was transferred away), further calls are no-op successes.
func (d *Dir) Cleanup(scopeErr error) error {
	if d.released || !d.fs.Exists(d.path) {
		return nil
	}

	remove := d.cfg.Cleanup == CleanupAlways ||
		(d.cfg.Cleanup == CleanupOnSuccess && scopeErr == nil)
	if !remove {
		d.log("TempDir keep '" + d.path + "'")
		return nil
	}

	if err := d.fs.RemoveAll(d.path); err != nil {
		d.log("TempDir removal of '" + d.path + "' failed. Error: " + err.Error())
		return classify(err)
	}
	d.log("TempDir remove '" + d.path + "'")
	return nil
}

// Release is the scope-exit teardown, meant for defer with a named return
// error:
//
//	defer d.Release(&err)
//
// It runs the same logic as Cleanup with the pointed-to error as the scope
// outcome (a nil pointer means success) and suppresses any cleanup error,
// which has already been logged. A teardown path must not fail.
func (d *Dir) Release(errp *error) {
	var scopeErr error
	if errp != nil {
		scopeErr = *errp
	}
	_ = d.Cleanup(scopeErr)
}

// Transfer moves ownership to a new handle. The source keeps its path but
// holds no resource afterward: its Cleanup and Release become no-ops, and
// the returned handle alone is responsible for eventual cleanup.
func (d *Dir) Transfer() *Dir {
	next := &Dir{path: d.path, cfg: d.cfg, fs: d.fs, released: d.released}
	d.released = true
	return next
}

func (d *Dir) log(line string) {
	logTo(d.cfg.Log, line)
}

func logTo(fn LogFunc, line string) {
	if fn != nil {
		fn(line)
	}
}

// generateName builds "<prefix>_<millis>_<5-digit random>". The wall-clock
// timestamp plus a random suffix makes collisions practically impossible
// without coordination, even within one millisecond.
func generateName(prefix string) string {
	ts := time.Now().UnixMilli()
	rn := rand.Intn(90000) + 10000
	return fmt.Sprintf("%s_%d_%d", prefix, ts, rn)
}
