package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/rsniff/internal/config"
	"github.com/bamsammich/rsniff/internal/event"
	"github.com/bamsammich/rsniff/internal/fixture"
	"github.com/bamsammich/rsniff/internal/transport"
	"github.com/bamsammich/rsniff/internal/ui"
	"github.com/bamsammich/rsniff/internal/verify"
)

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [dir]",
		Short: "Check that to.txt received from.txt and report sniff log sizes",
		Long: `Compare the BLAKE3 hashes of from.txt and to.txt after running the printed
rsync client command, and report the size of both sniff logs.

Without [dir] the directory of the last provisioning run is used.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return &usageError{cmd: cmd, err: err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runVerify,
	}
}

func (a *app) runVerify(cmd *cobra.Command, args []string) error {
	target, err := targetOrSession(args)
	if err != nil {
		return &usageError{cmd: cmd, err: err}
	}

	sshOpts, err := a.sshOpts()
	if err != nil {
		return &usageError{cmd: cmd, err: err}
	}
	ep, err := transport.Open(transport.ParseLocation(target), sshOpts)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer ep.Close()

	events := make(chan event.Event, 8)
	presenter := ui.NewPresenter(ui.Config{ErrWriter: a.stderr, Quiet: a.quiet, Verbose: a.verbose})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = presenter.Run(events) //nolint:errcheck // presenter error is non-fatal
	}()

	res, err := verify.Run(cmd.Context(), verify.Config{Endpoint: ep, Events: events})
	close(events)
	<-done

	if err != nil && !errors.Is(err, verify.ErrMismatch) {
		return &exitError{code: 1, err: err}
	}

	fmt.Fprintf(a.stdout, "%-20s %s  %s\n", fixture.RoleFrom.FileName(), shortHash(res.FromHash), res.Paths.From)
	fmt.Fprintf(a.stdout, "%-20s %s  %s\n", fixture.RoleTo.FileName(), shortHash(res.ToHash), res.Paths.To)
	for _, r := range []fixture.Role{fixture.RoleSniffedInput, fixture.RoleSniffedOutput} {
		info := res.Logs[r]
		size := "missing"
		if info.Present {
			size = ui.FormatBytes(info.Size)
		}
		fmt.Fprintf(a.stdout, "%-20s %-16s  %s\n", r.FileName(), size, info.Path)
	}
	if !res.PlaceholderIntact {
		ui.Warn(a.stderr, "from.txt was modified after provisioning", a.styled())
	}

	if err != nil {
		return &exitError{code: 1, err: err}
	}
	fmt.Fprintln(a.stdout, "to.txt matches from.txt")
	return nil
}

// targetOrSession returns the single positional argument, or the target
// recorded by the last provisioning run.
func targetOrSession(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	s, err := config.ReadSession()
	if errors.Is(err, os.ErrNotExist) {
		return "", errors.New("no directory given and no previous session recorded")
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	slog.Debug("using last session", "target", s.Target, "created", s.CreatedAt)
	return s.Target, nil
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
