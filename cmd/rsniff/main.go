package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/rsniff/internal/config"
	"github.com/bamsammich/rsniff/internal/event"
	"github.com/bamsammich/rsniff/internal/fixture"
	"github.com/bamsammich/rsniff/internal/rsynccmd"
	"github.com/bamsammich/rsniff/internal/transport"
	"github.com/bamsammich/rsniff/internal/ui"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries flag values and shared state across subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    config.Config
	logF   *os.File

	rsync       rsynccmd.Options
	logFile     string
	noCreate    bool
	verbose     bool
	quiet       bool
	noColor     bool
	showVersion bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	defer a.closeLog()

	rootCmd := a.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "Error: %v\n", usageErr.err)
		fmt.Fprint(stderr, usageErr.cmd.UsageString())
		return 2
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rsniff [flags] <dir>",
		Short: "Scaffold fixture files for sniffing the rsync protocol by hand",
		Long: `rsniff creates from.txt, to.txt, sniffed.input.log and sniffed.output.log in
<dir> and prints the rsync command lines that transfer from.txt to to.txt and
replay captured client bytes against "rsync --server --sender".

Existing sniff logs are renamed with a .backup suffix before being recreated.
<dir> may be remote (user@host:dir); fixtures are then created over SFTP,
using the password in $RSNIFF_SSH_PASSWORD when no key or agent works.

A relative <dir> named like a subcommand (verify, check) must be written
as ./verify or ./check.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if a.showVersion {
				return nil
			}
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{cmd: cmd, err: err}
			}
			return nil
		},
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
		RunE:              a.runProvision,
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{cmd: cmd, err: err}
	})

	rootCmd.Flags().BoolVar(&a.showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		BoolVar(&a.noCreate, "no-create", false, "only resolve and print paths; do not touch the filesystem")
	rootCmd.Flags().
		StringVar(&a.rsync.Host, "host", rsynccmd.DefaultHost, "host the printed client command pulls from")
	rootCmd.Flags().
		StringVar(&a.rsync.Binary, "rsync", rsynccmd.DefaultBinary, "local rsync binary in the printed client command")
	rootCmd.Flags().BoolVar(&a.noColor, "no-color", false, "disable styled output")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.rsync.RsyncPath, "rsync-path", rsynccmd.DefaultRsyncPath, "rsync program on the sending side")
	pf.IntVar(&a.rsync.Protocol, "protocol", rsynccmd.DefaultProtocol, "rsync protocol version to request")
	pf.StringVar(&a.rsync.User, "user", "", "SSH login user (printed client command and remote targets)")
	pf.StringVar(&a.rsync.SSHCommand, "ssh-command", rsynccmd.DefaultSSHCommand,
		"remote shell for the printed -e option; its -o options also apply when dialing remote targets")
	pf.IntVar(&a.rsync.SSHPort, "ssh-port", rsynccmd.DefaultSSHPort, "SSH port")
	pf.StringVar(&a.rsync.SSHKey, "ssh-key", "", "SSH private key file (default: auto-detect)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress all output except errors and instructions")
	pf.StringVar(&a.logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(a.verifyCmd())
	rootCmd.AddCommand(a.checkCmd())
	rootCmd.AddCommand(docsCmd())

	return rootCmd
}

// setup loads the config file, applies its defaults and configures
// logging. It runs before every command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, cfgErr := config.Load()
	a.cfg = cfg
	applyConfigDefaults(cmd.Flags(), cfg.Defaults, a)
	ui.ApplyTheme(cfg.Theme)

	if err := a.setupLogging(); err != nil {
		return err
	}
	if cfgErr != nil {
		slog.Warn("failed to load config", "path", config.Path(), "error", cfgErr)
	}
	return nil
}

func (a *app) setupLogging() error {
	logLevel := slog.LevelInfo
	if a.verbose {
		logLevel = slog.LevelDebug
	} else if a.quiet {
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: logLevel})

	var logHandler slog.Handler = textHandler
	if a.logFile != "" {
		lf, err := os.Create(a.logFile)
		if err != nil {
			return &exitError{code: 1, err: fmt.Errorf("open log file: %w", err)}
		}
		a.logF = lf
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return nil
}

func (a *app) closeLog() {
	if a.logF != nil {
		a.logF.Close()
		a.logF = nil
	}
}

func (a *app) runProvision(cmd *cobra.Command, args []string) error {
	if a.showVersion {
		fmt.Fprintf(a.stdout, "rsniff %s\n", version)
		return nil
	}

	target := args[0]
	loc := transport.ParseLocation(target)
	create := !a.noCreate

	sshOpts, err := a.sshOpts()
	if err != nil {
		return &usageError{cmd: cmd, err: err}
	}
	ep, err := transport.Open(loc, sshOpts)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer ep.Close()

	slog.Debug("provisioning fixtures", "target", loc, "dir", ep.Root(), "create", create)

	events := make(chan event.Event, 16)
	presenter := ui.NewPresenter(ui.Config{
		ErrWriter: a.stderr,
		Quiet:     a.quiet,
		Verbose:   a.verbose,
	})
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		_ = presenter.Run(events) //nolint:errcheck // presenter error is non-fatal
	}()

	p := &fixture.Provisioner{Endpoint: ep, Events: events}
	paths, err := p.Provision(cmd.Context(), create)
	close(events)
	presenterWg.Wait()
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	ins, err := rsynccmd.Build(paths, a.rsync)
	if err != nil {
		return &usageError{cmd: cmd, err: err}
	}
	if err := ui.RenderInstructions(a.stdout, ins, a.styled()); err != nil {
		return &exitError{code: 1, err: fmt.Errorf("write instructions: %w", err)}
	}

	if !create {
		slog.Info("--no-create set; fixture files were not touched")
		return nil
	}

	if err := config.WriteSession(config.Session{
		CreatedAt: time.Now().UTC(),
		Target:    target,
		Dir:       paths.Dir,
		Host:      loc.Host,
	}); err != nil {
		slog.Warn("failed to record session", "error", err)
	}

	if !a.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(a.stderr, summary)
		}
	}
	return nil
}

// sshOpts derives the provisioning connection from the same settings that
// render the printed remote shell, so both reach the host the same way.
func (a *app) sshOpts() (transport.SSHOpts, error) {
	words, err := shellquote.Split(a.rsync.SSHCommand)
	if err != nil {
		return transport.SSHOpts{}, fmt.Errorf("parse --ssh-command %q: %w", a.rsync.SSHCommand, err)
	}
	opts := transport.SSHOpts{
		Port:     a.rsync.SSHPort,
		User:     a.rsync.User,
		KeyFile:  a.rsync.SSHKey,
		Password: os.Getenv(transport.PasswordEnv),
	}
	return opts.WithCommandOptions(words), nil
}

// styled reports whether stdout is a terminal that should get colors.
func (a *app) styled() bool {
	if a.noColor {
		return false
	}
	f, ok := a.stdout.(*os.File)
	return ok && ui.IsTTY(f.Fd())
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(flags *pflag.FlagSet, d config.DefaultsConfig, a *app) {
	setString := func(name string, v *string, dst *string) {
		if v != nil && flags.Lookup(name) != nil && !flags.Changed(name) {
			*dst = *v
		}
	}
	setInt := func(name string, v *int, dst *int) {
		if v != nil && flags.Lookup(name) != nil && !flags.Changed(name) {
			*dst = *v
		}
	}

	setString("rsync-path", d.RsyncPath, &a.rsync.RsyncPath)
	setString("host", d.Host, &a.rsync.Host)
	setString("user", d.User, &a.rsync.User)
	setString("ssh-command", d.SSHCommand, &a.rsync.SSHCommand)
	setString("ssh-key", d.SSHKey, &a.rsync.SSHKey)
	setInt("protocol", d.Protocol, &a.rsync.Protocol)
	setInt("ssh-port", d.SSHPort, &a.rsync.SSHPort)

	if d.NoCreate != nil && flags.Lookup("no-create") != nil && !flags.Changed("no-create") {
		a.noCreate = *d.NoCreate
	}
}

// usageError is an argument or flag error; the usage text is printed
// alongside it.
type usageError struct {
	cmd *cobra.Command
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }
