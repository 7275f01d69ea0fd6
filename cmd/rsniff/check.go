package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bamsammich/rsniff/internal/probe"
	"github.com/bamsammich/rsniff/internal/transport"
	"github.com/bamsammich/rsniff/internal/ui"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [host]",
		Short: "Report the rsync version and protocol on this machine or a remote host",
		Long: `Run "<rsync-path> --version" locally, or over SSH when [host] is given
(user@host), and report the highest protocol it speaks. A warning is printed
when that protocol is older than --protocol.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return &usageError{cmd: cmd, err: err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	var runner probe.Runner = probe.LocalRunner{}
	if len(args) == 1 {
		// Accept both "user@host" and "user@host:path".
		loc := transport.ParseLocation(args[0] + ":")
		sshOpts, err := a.sshOpts()
		if err != nil {
			return &usageError{cmd: cmd, err: err}
		}
		client, err := transport.DialSSH(loc.Host, loc.User, sshOpts)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		defer client.Close()
		runner = &probe.SSHRunner{Client: client, Host: loc.Host}
	}

	info, err := probe.Check(cmd.Context(), runner, a.rsync.RsyncPath)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	slog.Debug("rsync banner", "where", runner.Where(), "banner", info.Banner)

	version := info.Version
	if version == "" {
		version = "unknown version"
	}
	fmt.Fprintf(a.stdout, "%s: %s (protocol %d) on %s\n",
		info.Binary, version, info.Protocol, runner.Where())

	if info.Protocol < a.rsync.Protocol {
		ui.Warn(a.stderr, fmt.Sprintf(
			"%s speaks protocol %d, older than the requested --protocol %d",
			info.Binary, info.Protocol, a.rsync.Protocol), a.styled())
	}
	return nil
}
