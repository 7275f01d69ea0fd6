package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Session records the most recently provisioned fixture directory so that
// follow-up commands (verify, check) can default to it.
type Session struct {
	CreatedAt time.Time `toml:"created_at"`
	Target    string    `toml:"target"` // location as given, e.g. dev@box:/srv/sniff
	Dir       string    `toml:"dir"`    // resolved absolute directory
	Host      string    `toml:"host"`
}

// sessionPathOverride allows tests to redirect the session file path.
var sessionPathOverride string //nolint:gochecknoglobals // test hook

// SetSessionPathOverride sets a test override for the session path.
// Pass "" to restore the default. This is intended for tests only.
func SetSessionPathOverride(path string) {
	sessionPathOverride = path
}

// SessionPath returns the path to the session file under XDG_STATE_HOME
// (falling back to ~/.local/state).
func SessionPath() string {
	if sessionPathOverride != "" {
		return sessionPathOverride
	}
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "rsniff", "session.toml")
}

// WriteSession writes the session file, creating its parent directory.
func WriteSession(s Session) error {
	path := SessionPath()
	if path == "" {
		return errors.New("no session path (home directory unknown)")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// ReadSession reads the session file. Returns os.ErrNotExist if no
// session was recorded yet.
func ReadSession() (Session, error) {
	path := SessionPath()
	if path == "" {
		return Session{}, os.ErrNotExist
	}

	var s Session
	_, err := toml.DecodeFile(path, &s)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, os.ErrNotExist
		}
		return Session{}, err
	}
	return s, nil
}
