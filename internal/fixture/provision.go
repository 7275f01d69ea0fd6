package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bamsammich/rsniff/internal/event"
	"github.com/bamsammich/rsniff/internal/transport"
)

const filePerm os.FileMode = 0o644

// Paths holds the resolved absolute location of every fixture file.
type Paths struct {
	Dir           string
	From          string
	To            string
	SniffedInput  string
	SniffedOutput string
}

// Path returns the absolute path for role.
func (p Paths) Path(r Role) string {
	switch r {
	case RoleFrom:
		return p.From
	case RoleTo:
		return p.To
	case RoleSniffedInput:
		return p.SniffedInput
	case RoleSniffedOutput:
		return p.SniffedOutput
	default:
		return ""
	}
}

func (p *Paths) set(r Role, path string) {
	switch r {
	case RoleFrom:
		p.From = path
	case RoleTo:
		p.To = path
	case RoleSniffedInput:
		p.SniffedInput = path
	case RoleSniffedOutput:
		p.SniffedOutput = path
	}
}

// Resolve computes the fixture paths under ep's root without touching the
// filesystem.
func Resolve(ep transport.Endpoint) Paths {
	p := Paths{Dir: ep.Root()}
	for _, r := range Roles {
		p.set(r, ep.AbsPath(r.FileName()))
	}
	return p
}

// Provisioner creates fixture files on an endpoint.
type Provisioner struct {
	Endpoint transport.Endpoint
	Events   chan<- event.Event // optional
}

// Provision resolves every fixture path and, when create is set, backs up
// existing sniff logs, creates or truncates all four files, and writes
// Placeholder into from.txt. With create unset the endpoint is never
// modified. Paths are returned in both modes.
func (p *Provisioner) Provision(ctx context.Context, create bool) (Paths, error) {
	paths := Paths{Dir: p.Endpoint.Root()}

	for _, r := range Roles {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := p.provisionFile(r, create)
		paths.set(r, path)
		if err != nil {
			return paths, err
		}
	}

	if !create {
		return paths, nil
	}

	name := RoleFrom.FileName()
	if err := p.Endpoint.WriteFile(name, []byte(Placeholder), filePerm); err != nil {
		return paths, fmt.Errorf("write placeholder %s: %w", paths.From, err)
	}
	slog.Debug("placeholder written", "path", paths.From, "size", len(Placeholder))
	event.Emit(p.Events, event.Event{
		Type: event.PlaceholderWritten,
		Role: RoleFrom.String(),
		Path: paths.From,
		Size: int64(len(Placeholder)),
	})

	return paths, nil
}

func (p *Provisioner) provisionFile(r Role, create bool) (string, error) {
	name := r.FileName()
	path := p.Endpoint.AbsPath(name)

	event.Emit(p.Events, event.Event{Type: event.FixtureResolved, Role: r.String(), Path: path})
	if !create {
		return path, nil
	}

	if r.BackedUp() {
		if err := p.backup(r, name, path); err != nil {
			return path, err
		}
	}

	if err := p.Endpoint.Truncate(name, filePerm); err != nil {
		return path, fmt.Errorf("create %s fixture %s: %w", r, path, err)
	}
	slog.Debug("fixture created", "role", r, "path", path)
	event.Emit(p.Events, event.Event{Type: event.FixtureCreated, Role: r.String(), Path: path})

	return path, nil
}

// backup moves an existing file aside, replacing any older backup.
func (p *Provisioner) backup(r Role, name, path string) error {
	exists, err := p.Endpoint.Exists(name)
	if err != nil {
		return fmt.Errorf("stat %s fixture %s: %w", r, path, err)
	}
	if !exists {
		return nil
	}

	backupPath := path + BackupSuffix
	if err := p.Endpoint.Rename(name, name+BackupSuffix); err != nil {
		return fmt.Errorf("back up %s to %s: %w", path, backupPath, err)
	}
	slog.Info("backed up previous sniff log", "path", backupPath)
	event.Emit(p.Events, event.Event{Type: event.BackupCreated, Role: r.String(), Path: backupPath})

	return nil
}
