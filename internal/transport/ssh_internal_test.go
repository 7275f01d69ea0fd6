package transport

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// sshHome points HOME at an empty dir and hides any running agent.
func sshHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SSH_AUTH_SOCK", "")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0o700))
	return home
}

func writeKey(t *testing.T, path string) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "rsniff test")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
}

func TestBuildAuthMethods_ExplicitKeyFile(t *testing.T) {
	sshHome(t)
	key := filepath.Join(t.TempDir(), "fixture_key")
	writeKey(t, key)

	methods, err := buildAuthMethods(SSHOpts{KeyFile: key})
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestBuildAuthMethods_ExplicitKeyFileMissing(t *testing.T) {
	home := sshHome(t)
	// A usable default key must not mask a bad --ssh-key.
	writeKey(t, filepath.Join(home, ".ssh", "id_ed25519"))
	missing := filepath.Join(t.TempDir(), "absent")

	_, err := buildAuthMethods(SSHOpts{KeyFile: missing})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), missing)
}

func TestBuildAuthMethods_ExplicitKeyFileGarbage(t *testing.T) {
	sshHome(t)
	key := filepath.Join(t.TempDir(), "not_a_key")
	require.NoError(t, os.WriteFile(key, []byte("hello"), 0o600))

	_, err := buildAuthMethods(SSHOpts{KeyFile: key})
	assert.ErrorContains(t, err, "parse ssh key")
}

func TestBuildAuthMethods_NoneAvailable(t *testing.T) {
	sshHome(t)

	_, err := buildAuthMethods(SSHOpts{})
	assert.ErrorIs(t, err, ErrNoAuthMethods)
}

func TestBuildAuthMethods_DefaultKeysAndPassword(t *testing.T) {
	home := sshHome(t)
	writeKey(t, filepath.Join(home, ".ssh", "id_ed25519"))
	writeKey(t, filepath.Join(home, ".ssh", "id_rsa"))
	// Unparseable default keys are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(home, ".ssh", "id_ecdsa"), []byte("junk"), 0o600))

	methods, err := buildAuthMethods(SSHOpts{Password: "rsync"})
	require.NoError(t, err)
	assert.Len(t, methods, 3)
}

func TestBuildAuthMethods_PasswordOnly(t *testing.T) {
	sshHome(t)

	methods, err := buildAuthMethods(SSHOpts{Password: "rsync"})
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestHostKeyCallback_MissingKnownHosts(t *testing.T) {
	home := sshHome(t)

	_, err := hostKeyCallback(SSHOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(home, ".ssh", "known_hosts"))
	assert.Contains(t, err.Error(), "StrictHostKeyChecking=no")
}

func TestHostKeyCallback_Insecure(t *testing.T) {
	sshHome(t)

	cb, err := hostKeyCallback(SSHOpts{InsecureHostKey: true})
	require.NoError(t, err)
	assert.NotNil(t, cb)
}

func TestHostKeyCallback_KnownHostsFile(t *testing.T) {
	sshHome(t)
	kh := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(kh, nil, 0o600))

	cb, err := hostKeyCallback(SSHOpts{KnownHostsFile: kh})
	require.NoError(t, err)
	assert.NotNil(t, cb)
}

func TestSSHOpts_WithCommandOptions(t *testing.T) {
	home := sshHome(t)

	tests := []struct {
		name      string
		words     []string
		insecure  bool
		knownHost string
	}{
		{name: "plain ssh", words: []string{"ssh"}},
		{name: "separate -o", words: []string{"ssh", "-o", "StrictHostKeyChecking=no"}, insecure: true},
		{name: "joined -o", words: []string{"ssh", "-oStrictHostKeyChecking=no"}, insecure: true},
		{name: "space form and case", words: []string{"ssh", "-o", "stricthostkeychecking off"}, insecure: true},
		{name: "yes keeps checking", words: []string{"ssh", "-o", "StrictHostKeyChecking=yes"}},
		{name: "first occurrence wins", words: []string{
			"ssh", "-o", "StrictHostKeyChecking=yes", "-o", "StrictHostKeyChecking=no",
		}},
		{
			name:      "known hosts file",
			words:     []string{"ssh", "-o", "UserKnownHostsFile=~/.ssh/sniff_hosts"},
			knownHost: filepath.Join(home, ".ssh", "sniff_hosts"),
		},
		{name: "dangling -o", words: []string{"ssh", "-o"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SSHOpts{Port: 2222}.WithCommandOptions(tt.words)
			assert.Equal(t, 2222, got.Port)
			assert.Equal(t, tt.insecure, got.InsecureHostKey)
			assert.Equal(t, tt.knownHost, got.KnownHostsFile)
		})
	}
}

func TestResolveUser(t *testing.T) {
	t.Parallel()

	got, err := resolveUser("alice", SSHOpts{User: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "alice", got, "user@ in the target wins")

	got, err = resolveUser("", SSHOpts{User: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", got)
}
