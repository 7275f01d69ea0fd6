package transport

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Compile-time interface check.
var _ Endpoint = (*SFTPEndpoint)(nil)

// SFTPEndpoint provisions fixtures on a remote filesystem over SFTP.
type SFTPEndpoint struct {
	client *sftp.Client
	conn   io.Closer // underlying SSH connection; nil when not owned
	root   string

	posixRename bool // server supports posix-rename@openssh.com
}

// NewSFTPEndpoint creates an endpoint backed by an SFTP session on
// sshClient. The endpoint owns sshClient and closes it on Close.
func NewSFTPEndpoint(sshClient *ssh.Client, dir string) (*SFTPEndpoint, error) {
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	e, err := newSFTPEndpoint(sftpClient, sshClient, dir)
	if err != nil {
		sftpClient.Close()
		return nil, err
	}
	return e, nil
}

// newSFTPEndpoint resolves dir against the server's working directory
// and cleans it, so trailing separators never reach printed paths.
func newSFTPEndpoint(client *sftp.Client, conn io.Closer, dir string) (*SFTPEndpoint, error) {
	root := path.Clean(dir)
	if !path.IsAbs(root) {
		resolved, err := client.RealPath(root)
		if err != nil {
			return nil, fmt.Errorf("sftp realpath %s: %w", dir, err)
		}
		root = path.Clean(resolved)
	}
	_, posix := client.HasExtension("posix-rename@openssh.com")
	return &SFTPEndpoint{client: client, conn: conn, root: root, posixRename: posix}, nil
}

func (e *SFTPEndpoint) Stat(relPath string) (FileEntry, error) {
	info, err := e.client.Lstat(e.AbsPath(relPath))
	if err != nil {
		return FileEntry{}, err
	}
	return fileInfoToEntry(info, relPath), nil
}

func (e *SFTPEndpoint) Exists(relPath string) (bool, error) {
	_, err := e.client.Lstat(e.AbsPath(relPath))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Rename replaces newRel atomically when the server offers posix-rename.
// Otherwise a plain SFTP rename is tried first, and the destination is
// only removed once the source is known to exist.
func (e *SFTPEndpoint) Rename(oldRel, newRel string) error {
	oldAbs := e.AbsPath(oldRel)
	newAbs := e.AbsPath(newRel)
	if e.posixRename {
		return e.client.PosixRename(oldAbs, newAbs)
	}

	renameErr := e.client.Rename(oldAbs, newAbs)
	if renameErr == nil {
		return nil
	}
	if _, err := e.client.Lstat(oldAbs); err != nil {
		return renameErr
	}
	if err := e.client.Remove(newAbs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("sftp remove %s: %w", newAbs, err)
	}
	return e.client.Rename(oldAbs, newAbs)
}

func (e *SFTPEndpoint) Truncate(relPath string, perm os.FileMode) error {
	f, err := e.openTrunc(relPath, perm)
	if err != nil {
		return err
	}
	return f.Close()
}

func (e *SFTPEndpoint) WriteFile(relPath string, data []byte, perm os.FileMode) error {
	f, err := e.openTrunc(relPath, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("sftp write %s: %w", e.AbsPath(relPath), err)
	}
	return f.Close()
}

// openTrunc opens relPath write-only with O_CREATE|O_TRUNC. OpenFile takes
// no mode, so perm is applied with a chmod, and only to files it created:
// existing files keep their mode like os.OpenFile leaves them.
func (e *SFTPEndpoint) openTrunc(relPath string, perm os.FileMode) (*sftp.File, error) {
	absPath := e.AbsPath(relPath)
	existed, err := e.Exists(relPath)
	if err != nil {
		return nil, fmt.Errorf("sftp stat %s: %w", absPath, err)
	}
	f, err := e.client.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("sftp open %s: %w", absPath, err)
	}
	if existed {
		return f, nil
	}
	if err := e.client.Chmod(absPath, perm); err != nil {
		f.Close()
		return nil, fmt.Errorf("sftp chmod %s: %w", absPath, err)
	}
	return f, nil
}

func (e *SFTPEndpoint) OpenRead(relPath string) (io.ReadCloser, error) {
	return e.client.Open(e.AbsPath(relPath))
}

func (e *SFTPEndpoint) Hash(relPath string) (string, error) {
	absPath := e.AbsPath(relPath)
	f, err := e.client.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("sftp open %s: %w", absPath, err)
	}
	defer f.Close()
	return hashReader(f)
}

// AbsPath joins with path (not filepath) since remote paths use forward
// slashes.
func (e *SFTPEndpoint) AbsPath(relPath string) string {
	return path.Join(e.root, relPath)
}

func (e *SFTPEndpoint) Root() string { return e.root }

func (e *SFTPEndpoint) Close() error {
	err := e.client.Close()
	if e.conn != nil {
		if connErr := e.conn.Close(); connErr != nil && err == nil {
			err = connErr
		}
	}
	return err
}
