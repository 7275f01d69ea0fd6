package transport

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time interface check.
var _ Endpoint = (*LocalEndpoint)(nil)

// LocalEndpoint provisions fixtures on the local filesystem.
type LocalEndpoint struct {
	root string
}

// NewLocalEndpoint creates an endpoint rooted at dir. The directory is
// made absolute and cleaned, so "/tmp/x/" and "/tmp/x" are the same root.
// It is not required to exist yet; operations on it will fail if it
// doesn't.
func NewLocalEndpoint(dir string) (*LocalEndpoint, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	return &LocalEndpoint{root: abs}, nil
}

func (e *LocalEndpoint) Stat(relPath string) (FileEntry, error) {
	absPath := e.AbsPath(relPath)
	info, err := os.Lstat(absPath)
	if err != nil {
		return FileEntry{}, err
	}
	return fileInfoToEntry(info, relPath), nil
}

func (e *LocalEndpoint) Exists(relPath string) (bool, error) {
	_, err := os.Lstat(e.AbsPath(relPath))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (e *LocalEndpoint) Rename(oldRel, newRel string) error {
	return os.Rename(e.AbsPath(oldRel), e.AbsPath(newRel))
}

func (e *LocalEndpoint) Truncate(relPath string, perm os.FileMode) error {
	absPath := e.AbsPath(relPath)
	f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	return f.Close()
}

func (e *LocalEndpoint) WriteFile(relPath string, data []byte, perm os.FileMode) error {
	return os.WriteFile(e.AbsPath(relPath), data, perm)
}

func (e *LocalEndpoint) OpenRead(relPath string) (io.ReadCloser, error) {
	return os.Open(e.AbsPath(relPath))
}

func (e *LocalEndpoint) Hash(relPath string) (string, error) {
	absPath := e.AbsPath(relPath)
	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", absPath, err)
	}
	defer f.Close()
	return hashReader(f)
}

func (e *LocalEndpoint) AbsPath(relPath string) string {
	return filepath.Join(e.root, relPath)
}

func (e *LocalEndpoint) Root() string { return e.root }
func (*LocalEndpoint) Close() error   { return nil }

// fileInfoToEntry converts os.FileInfo to a FileEntry.
func fileInfoToEntry(info os.FileInfo, relPath string) FileEntry {
	return FileEntry{
		RelPath: relPath,
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}
