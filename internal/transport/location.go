package transport

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Location represents a parsed target directory argument.
type Location struct {
	Host string
	User string
	Path string
}

// IsRemote returns true if the location refers to a remote host.
func (l Location) IsRemote() bool {
	return l.Host != ""
}

// String returns a human-readable representation.
func (l Location) String() string {
	if !l.IsRemote() {
		return l.Path
	}
	if l.User != "" {
		return fmt.Sprintf("%s@%s:%s", l.User, l.Host, l.Path)
	}
	return fmt.Sprintf("%s:%s", l.Host, l.Path)
}

// ParseLocation parses a CLI argument into a Location.
//
// Supported formats:
//   - /absolute/path                  → local
//   - relative/path                   → local
//   - host:path                       → SSH remote (current user)
//   - user@host:path                  → SSH remote
//   - user@host:/abs/path             → SSH remote
//
// Ambiguity rule: a bare "word" with no colon is always local. A path
// containing ":" is only treated as remote if the part before the colon
// contains no path separators (so "/foo:bar" and "./host:path" are local).
func ParseLocation(arg string) Location {
	if filepath.IsAbs(arg) || strings.HasPrefix(arg, "./") || strings.HasPrefix(arg, "../") {
		return Location{Path: arg}
	}

	colonIdx := strings.IndexByte(arg, ':')
	if colonIdx < 0 {
		return Location{Path: arg}
	}

	hostPart := arg[:colonIdx]
	pathPart := arg[colonIdx+1:]

	if strings.ContainsRune(hostPart, filepath.Separator) || strings.ContainsRune(hostPart, '/') {
		return Location{Path: arg}
	}
	if hostPart == "" {
		return Location{Path: arg}
	}

	var user, host string
	if atIdx := strings.LastIndexByte(hostPart, '@'); atIdx >= 0 {
		user = hostPart[:atIdx]
		host = hostPart[atIdx+1:]
	} else {
		host = hostPart
	}
	if host == "" {
		return Location{Path: arg}
	}

	// "host:" means the remote login directory.
	if pathPart == "" {
		pathPart = "."
	}

	return Location{
		Host: host,
		User: user,
		Path: pathPart,
	}
}

// Open returns the endpoint for loc: local for plain paths, SFTP over a
// fresh SSH connection for remote ones.
//
//nolint:ireturn // factory returns interface by design
func Open(loc Location, opts SSHOpts) (Endpoint, error) {
	if !loc.IsRemote() {
		return NewLocalEndpoint(loc.Path)
	}
	client, err := DialSSH(loc.Host, loc.User, opts)
	if err != nil {
		return nil, err
	}
	ep, err := NewSFTPEndpoint(client, loc.Path)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: %w", loc, err)
	}
	return ep, nil
}
