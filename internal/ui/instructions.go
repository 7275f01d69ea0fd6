package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/rsniff/internal/fixture"
	"github.com/bamsammich/rsniff/internal/rsynccmd"
)

var roleHelp = map[fixture.Role]string{
	fixture.RoleFrom:          "transfer source, holds the placeholder text",
	fixture.RoleTo:            "transfer destination",
	fixture.RoleSniffedInput:  "client bytes, fed to the server on stdin",
	fixture.RoleSniffedOutput: "server reply, captured from stdout",
}

// RenderInstructions writes the fixture table and both rsync invocations.
// With styled unset the output is plain text, suitable for pipes and logs.
func RenderInstructions(w io.Writer, ins rsynccmd.Instructions, styled bool) error {
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", paint(styleHeading, "Fixture directory:"), paint(stylePath, ins.Paths.Dir))

	pathWidth := 0
	for _, r := range fixture.Roles {
		pathWidth = max(pathWidth, len(ins.Paths.Path(r)))
	}
	for _, r := range fixture.Roles {
		// Pad before painting so ANSI codes don't break alignment.
		role := fmt.Sprintf("%-15s", r.String())
		path := fmt.Sprintf("%-*s", pathWidth, ins.Paths.Path(r))
		fmt.Fprintf(&b, "  %s %s  %s\n",
			paint(styleRole, role), paint(stylePath, path), paint(styleMuted, roleHelp[r]))
	}

	fmt.Fprintf(&b, "\n%s\n", paint(styleHeading, "1. Transfer from.txt to to.txt with the rsync client:"))
	fmt.Fprintf(&b, "   %s\n", paint(styleCommand, ins.Client))

	fmt.Fprintf(&b, "\n%s\n", paint(styleHeading, "2. Negotiate with a sender by hand, replaying sniffed client bytes:"))
	fmt.Fprintf(&b, "   %s\n", paint(styleCommand, ins.Server))

	fmt.Fprintf(&b, "\n%s\n", paint(styleMuted,
		"Capture what the client writes into "+ins.Paths.SniffedInput+
			" (e.g. wrap --rsync-path with tee), then run step 2 and inspect "+
			ins.Paths.SniffedOutput+"."))

	_, err := io.WriteString(w, b.String())
	return err
}

// Warn renders a one-line warning, styled when requested.
func Warn(w io.Writer, msg string, styled bool) {
	if styled {
		msg = styleWarn.Render(msg)
	}
	fmt.Fprintln(w, msg)
}
