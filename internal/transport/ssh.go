package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	// DefaultSSHPort is used when SSHOpts.Port is zero.
	DefaultSSHPort = 22

	// PasswordEnv names the environment variable holding an SSH password
	// for hosts without key auth, such as throwaway rsync test containers.
	PasswordEnv = "RSNIFF_SSH_PASSWORD"

	dialTimeout = 15 * time.Second
)

// ErrNoAuthMethods is returned when neither an agent, a key file nor a
// password is available.
var ErrNoAuthMethods = errors.New("no SSH auth methods available (start ssh-agent, pass --ssh-key, or set " + PasswordEnv + ")")

// defaultKeyNames are tried under ~/.ssh when no key file is given.
var defaultKeyNames = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// SSHOpts configures how rsniff reaches a remote fixture directory. The
// fields mirror the remote shell printed in the client command so the
// provisioning connection and the engineer's rsync run agree.
type SSHOpts struct {
	Port     int
	User     string // used when the target carries no user@ prefix
	KeyFile  string // empty means try ~/.ssh defaults
	Password string

	// KnownHostsFile overrides ~/.ssh/known_hosts.
	KnownHostsFile string
	// InsecureHostKey skips host key verification, as
	// "-o StrictHostKeyChecking=no" does for ssh.
	InsecureHostKey bool
}

// WithCommandOptions applies the -o options found in an ssh command line
// (already split into words). StrictHostKeyChecking=no disables host key
// verification and UserKnownHostsFile replaces the known_hosts path.
func (o SSHOpts) WithCommandOptions(words []string) SSHOpts {
	opts := sshCommandOptions(words)
	switch strings.ToLower(opts["stricthostkeychecking"]) {
	case "no", "off":
		o.InsecureHostKey = true
	}
	if f := opts["userknownhostsfile"]; f != "" {
		o.KnownHostsFile = expandHome(strings.Fields(f)[0])
	}
	return o
}

// sshCommandOptions collects "-o Key=Value", "-oKey=Value" and
// "-o Key Value" options keyed by lowercased name. The first occurrence
// wins, as in ssh.
func sshCommandOptions(words []string) map[string]string {
	out := make(map[string]string)
	for i := 0; i < len(words); i++ {
		var opt string
		switch {
		case words[i] == "-o" && i+1 < len(words):
			i++
			opt = words[i]
		case strings.HasPrefix(words[i], "-o") && len(words[i]) > 2:
			opt = words[i][2:]
		default:
			continue
		}
		key, val, ok := strings.Cut(opt, "=")
		if !ok {
			key, val, _ = strings.Cut(opt, " ")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if _, seen := out[key]; !seen && key != "" {
			out[key] = strings.TrimSpace(val)
		}
	}
	return out
}

// DialSSH connects to host. userName comes from the target location; when
// empty, SSHOpts.User and then the current OS user are used.
func DialSSH(host, userName string, opts SSHOpts) (*ssh.Client, error) {
	userName, err := resolveUser(userName, opts)
	if err != nil {
		return nil, err
	}

	port := opts.Port
	if port == 0 {
		port = DefaultSSHPort
	}

	authMethods, err := buildAuthMethods(opts)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := hostKeyCallback(opts)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            userName,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         dialTimeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s@%s: %w", userName, addr, err)
	}
	return client, nil
}

func resolveUser(userName string, opts SSHOpts) (string, error) {
	if userName != "" {
		return userName, nil
	}
	if opts.User != "" {
		return opts.User, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("determine current user: %w", err)
	}
	return u.Username, nil
}

// buildAuthMethods returns agent, key and password auth in that order.
// An explicit KeyFile must load; default keys that fail to load are
// skipped.
func buildAuthMethods(opts SSHOpts) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if opts.KeyFile != "" {
		signer, err := loadSigner(expandHome(opts.KeyFile))
		if err != nil {
			return nil, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	} else if home, err := os.UserHomeDir(); err == nil {
		for _, name := range defaultKeyNames {
			if signer, err := loadSigner(filepath.Join(home, ".ssh", name)); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}

	if opts.Password != "" {
		methods = append(methods, ssh.Password(opts.Password))
	}

	if len(methods) == 0 {
		return nil, ErrNoAuthMethods
	}
	return methods, nil
}

func loadSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key %s: %w", path, err)
	}
	return signer, nil
}

// hostKeyCallback verifies against known_hosts unless host key checking
// was turned off. A missing known_hosts file is an error, not a silent
// downgrade.
func hostKeyCallback(opts SSHOpts) (ssh.HostKeyCallback, error) {
	if opts.InsecureHostKey {
		//nolint:gosec // requested with -o StrictHostKeyChecking=no
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := opts.KnownHostsFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf(
			"load %s: %w (add the host key, or pass --ssh-command \"ssh -o StrictHostKeyChecking=no\")",
			path, err)
	}
	return cb, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
