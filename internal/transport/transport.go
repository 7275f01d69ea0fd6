package transport

import (
	"io"
	"os"
	"time"
)

// FileEntry describes a single fixture file on an endpoint.
type FileEntry struct {
	ModTime time.Time
	RelPath string
	Size    int64
	Mode    os.FileMode
	IsDir   bool
}

// Endpoint is a directory that fixture files are provisioned into. All
// paths passed to its methods are relative to Root.
type Endpoint interface {
	// Stat returns metadata for a single relative path.
	Stat(relPath string) (FileEntry, error)

	// Exists reports whether relPath is present. A missing file is not an
	// error; any other stat failure is.
	Exists(relPath string) (bool, error)

	// Rename moves oldRel to newRel, replacing newRel if it exists.
	Rename(oldRel, newRel string) error

	// Truncate creates relPath, or truncates it to zero length if present.
	Truncate(relPath string, perm os.FileMode) error

	// WriteFile opens relPath for writing with truncation and writes data.
	WriteFile(relPath string, data []byte, perm os.FileMode) error

	// OpenRead opens a file for reading by relative path.
	OpenRead(relPath string) (io.ReadCloser, error)

	// Hash computes the BLAKE3 hash of a file by relative path.
	Hash(relPath string) (string, error)

	// AbsPath returns the absolute path of relPath on the endpoint's host.
	AbsPath(relPath string) string

	// Root returns the absolute, cleaned root path of this endpoint.
	Root() string

	// Close releases resources held by this endpoint.
	Close() error
}
