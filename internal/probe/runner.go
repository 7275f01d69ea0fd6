package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/kballard/go-shellquote"
	"golang.org/x/crypto/ssh"
)

// LocalRunner runs programs on this machine.
type LocalRunner struct{}

func (LocalRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, path, args...).Output()
}

func (LocalRunner) Where() string { return "localhost" }

// SSHRunner runs programs through a session on an established SSH
// connection.
type SSHRunner struct {
	Client *ssh.Client
	Host   string
}

func (r *SSHRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	session, err := r.Client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	// Sessions ignore contexts; closing the session aborts the command.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-done:
		}
	}()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	cmd := shellquote.Join(append([]string{name}, args...)...)
	if err := session.Run(cmd); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func (r *SSHRunner) Where() string { return r.Host }
