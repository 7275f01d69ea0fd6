// Package rsynccmd renders the rsync invocations an engineer runs by hand
// against a provisioned fixture directory.
package rsynccmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kballard/go-shellquote"

	"github.com/bamsammich/rsniff/internal/fixture"
)

// Defaults for Options fields left at their zero value.
const (
	DefaultBinary     = "rsync"
	DefaultRsyncPath  = "rsync"
	DefaultProtocol   = 31
	DefaultHost       = "localhost"
	DefaultSSHCommand = "ssh"
	DefaultSSHPort    = 22
)

// ServerFlags is the option string a protocol-31 client sends to a sender
// for a verbose single-file pull.
const ServerFlags = "-ve.LsfxC"

// Options controls how the printed commands are rendered.
type Options struct {
	Binary     string // local rsync binary
	RsyncPath  string // program the remote shell runs (--rsync-path)
	Host       string
	User       string
	SSHCommand string // remote shell, may carry its own arguments
	SSHKey     string
	Protocol   int
	SSHPort    int
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Binary == "" {
		o.Binary = DefaultBinary
	}
	if o.RsyncPath == "" {
		o.RsyncPath = DefaultRsyncPath
	}
	if o.Host == "" {
		o.Host = DefaultHost
	}
	if o.SSHCommand == "" {
		o.SSHCommand = DefaultSSHCommand
	}
	if o.Protocol == 0 {
		o.Protocol = DefaultProtocol
	}
	if o.SSHPort == 0 {
		o.SSHPort = DefaultSSHPort
	}
	return o
}

// Instructions bundles everything printed after provisioning.
type Instructions struct {
	Paths  fixture.Paths
	Client string
	Server string
	Remote string // remote shell argument passed to -e
}

// Build renders both command lines for paths.
func Build(paths fixture.Paths, opts Options) (Instructions, error) {
	opts = opts.WithDefaults()

	remote, err := RemoteShell(opts)
	if err != nil {
		return Instructions{}, err
	}
	server, err := Server(paths, opts)
	if err != nil {
		return Instructions{}, err
	}
	return Instructions{
		Paths:  paths,
		Client: Client(paths, opts, remote),
		Server: server,
		Remote: remote,
	}, nil
}

// RemoteShell renders the -e argument: the ssh command followed by its
// port and identity options.
func RemoteShell(opts Options) (string, error) {
	opts = opts.WithDefaults()
	words, err := shellquote.Split(opts.SSHCommand)
	if err != nil {
		return "", fmt.Errorf("parse ssh command %q: %w", opts.SSHCommand, err)
	}
	if len(words) == 0 {
		return "", errors.New("ssh command is empty")
	}
	words = append(words, "-p", strconv.Itoa(opts.SSHPort))
	if opts.SSHKey != "" {
		words = append(words, "-i", opts.SSHKey)
	}
	return shellquote.Join(words...), nil
}

// Client renders the client invocation that pulls from.txt through the
// remote shell into to.txt.
func Client(paths fixture.Paths, opts Options, remoteShell string) string {
	opts = opts.WithDefaults()
	src := opts.Host + ":" + paths.From
	if opts.User != "" {
		src = opts.User + "@" + src
	}
	return shellquote.Join(
		opts.Binary,
		"--rsync-path="+opts.RsyncPath,
		"-v",
		"--protocol", strconv.Itoa(opts.Protocol),
		"-e", remoteShell,
		src,
		paths.To,
	)
}

// Server renders the sender-side invocation that replays the captured
// client bytes from sniffed.input.log and records the reply in
// sniffed.output.log.
// RsyncPath may hold several words ("sudo rsync"); they are split like the
// remote shell would split --rsync-path.
func Server(paths fixture.Paths, opts Options) (string, error) {
	opts = opts.WithDefaults()
	words, err := shellquote.Split(opts.RsyncPath)
	if err != nil {
		return "", fmt.Errorf("parse rsync path %q: %w", opts.RsyncPath, err)
	}
	if len(words) == 0 {
		return "", errors.New("rsync path is empty")
	}
	words = append(words, "--server", "--sender", ServerFlags, ".", paths.From)
	return shellquote.Join(words...) + " < " + shellquote.Join(paths.SniffedInput) +
		" > " + shellquote.Join(paths.SniffedOutput), nil
}
