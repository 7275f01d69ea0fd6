// Package verify checks a fixture directory after the engineer ran the
// printed rsync commands.
package verify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/zeebo/blake3"

	"github.com/bamsammich/rsniff/internal/event"
	"github.com/bamsammich/rsniff/internal/fixture"
	"github.com/bamsammich/rsniff/internal/transport"
)

// ErrMismatch is returned when to.txt does not match from.txt.
var ErrMismatch = errors.New("to.txt does not match from.txt")

// Config controls a verification pass.
type Config struct {
	Endpoint transport.Endpoint
	Events   chan<- event.Event // optional
}

// LogInfo describes one sniff log after a session.
type LogInfo struct {
	Path    string
	Size    int64
	Present bool
}

// Result holds the outcome of a verification pass.
type Result struct {
	Paths    fixture.Paths
	FromHash string
	ToHash   string
	// PlaceholderIntact is false when from.txt no longer holds the
	// placeholder, e.g. it was edited between provisioning and transfer.
	PlaceholderIntact bool
	Match             bool
	Logs              map[fixture.Role]LogInfo
}

// PlaceholderHash is the hex BLAKE3 digest of fixture.Placeholder.
func PlaceholderHash() string {
	sum := blake3.Sum256([]byte(fixture.Placeholder))
	return hex.EncodeToString(sum[:])
}

// Run hashes from.txt and to.txt and stats both sniff logs. A content
// mismatch returns the result together with ErrMismatch; a missing
// from.txt or to.txt is reported as a filesystem error.
func Run(ctx context.Context, cfg Config) (Result, error) {
	ep := cfg.Endpoint
	res := Result{
		Paths: fixture.Resolve(ep),
		Logs:  make(map[fixture.Role]LogInfo, 2),
	}
	event.Emit(cfg.Events, event.Event{Type: event.VerifyStarted, Path: res.Paths.Dir})

	var err error
	res.FromHash, err = ep.Hash(fixture.RoleFrom.FileName())
	if err != nil {
		return res, fmt.Errorf("hash %s: %w", res.Paths.From, err)
	}
	res.PlaceholderIntact = res.FromHash == PlaceholderHash()
	if !res.PlaceholderIntact {
		slog.Warn("from.txt no longer holds the placeholder text", "path", res.Paths.From)
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.ToHash, err = ep.Hash(fixture.RoleTo.FileName())
	if err != nil {
		event.Emit(cfg.Events, event.Event{
			Type:  event.VerifyFailed,
			Role:  fixture.RoleTo.String(),
			Path:  res.Paths.To,
			Error: err,
		})
		return res, fmt.Errorf("hash %s: %w", res.Paths.To, err)
	}

	for _, r := range []fixture.Role{fixture.RoleSniffedInput, fixture.RoleSniffedOutput} {
		info, err := statLog(ep, r)
		if err != nil {
			return res, err
		}
		res.Logs[r] = info
		slog.Debug("sniff log", "role", r, "path", info.Path, "size", info.Size, "present", info.Present)
	}

	res.Match = res.FromHash == res.ToHash
	if !res.Match {
		slog.Debug("hash mismatch", "from", res.FromHash, "to", res.ToHash)
		event.Emit(cfg.Events, event.Event{
			Type: event.VerifyFailed,
			Role: fixture.RoleTo.String(),
			Path: res.Paths.To,
		})
		return res, ErrMismatch
	}

	entry, err := ep.Stat(fixture.RoleTo.FileName())
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", res.Paths.To, err)
	}
	event.Emit(cfg.Events, event.Event{
		Type: event.VerifyOK,
		Role: fixture.RoleTo.String(),
		Path: res.Paths.To,
		Size: entry.Size,
	})
	return res, nil
}

func statLog(ep transport.Endpoint, r fixture.Role) (LogInfo, error) {
	info := LogInfo{Path: ep.AbsPath(r.FileName())}
	entry, err := ep.Stat(r.FileName())
	if errors.Is(err, fs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("stat %s: %w", info.Path, err)
	}
	info.Present = true
	info.Size = entry.Size
	return info, nil
}
