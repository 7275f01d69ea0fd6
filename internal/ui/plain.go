package ui

import (
	"fmt"
	"io"
	"strings"
)

// plainPresenter writes one line per fixture action to the error writer
// in verbose mode, and always reports backups since they move user data.
type plainPresenter struct {
	w       io.Writer
	verbose bool

	created  int
	backedUp int
	verified int
	failed   int
}

func (p *plainPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case FixtureResolved:
		if p.verbose {
			fmt.Fprintf(p.w, "resolve: %s  %s\n", ev.Role, ev.Path)
		}
	case FixtureCreated:
		p.created++
		if p.verbose {
			fmt.Fprintf(p.w, "create: %s\n", ev.Path)
		}
	case BackupCreated:
		p.backedUp++
		fmt.Fprintf(p.w, "backup: %s\n", ev.Path)
	case PlaceholderWritten:
		if p.verbose {
			fmt.Fprintf(p.w, "write: %s  %s\n", ev.Path, FormatBytes(ev.Size))
		}
	case VerifyStarted:
		if p.verbose {
			fmt.Fprintln(p.w, "verifying...")
		}
	case VerifyOK:
		p.verified++
		if p.verbose {
			fmt.Fprintf(p.w, "ok: %s  %s\n", ev.Path, FormatBytes(ev.Size))
		}
	case VerifyFailed:
		p.failed++
		msg := "content differs"
		if ev.Error != nil {
			msg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "MISMATCH: %s  %s\n", ev.Path, msg)
	}
}

func (p *plainPresenter) Summary() string {
	var parts []string
	if p.created > 0 {
		parts = append(parts, fmt.Sprintf("%d %s created", p.created, plural(p.created, "fixture")))
	}
	if p.backedUp > 0 {
		parts = append(parts, fmt.Sprintf("%d %s backed up", p.backedUp, plural(p.backedUp, "log")))
	}
	if p.verified > 0 {
		parts = append(parts, fmt.Sprintf("%d verified", p.verified))
	}
	if p.failed > 0 {
		parts = append(parts, fmt.Sprintf("%d mismatched", p.failed))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
