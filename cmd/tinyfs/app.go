package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/confirm"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/fsclient"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/logging"
)

// app carries global flags and the lazily opened workspace across the
// commands of one process. Inside `tinyfs shell` every line shares it, so
// history accumulates.
type app struct {
	workspace   string
	autoConfirm bool
	verbose     bool
	cfgFile     string
	approval    string

	// stdin is shared by content reads, the shell loop and the prompter
	stdin       *bufio.Reader
	stdout      io.Writer
	stderr      io.Writer
	interactive bool

	cfg    *config.Config
	logger *logging.Logger
	client *fsclient.Client
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	a := &app{
		stdin:  bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
	}
	if f, ok := stdin.(*os.File); ok {
		a.interactive = confirm.IsInteractive(f)
	}
	return a
}

// setup loads configuration and the logger once per process. Flags given
// on the command line override the file and environment.
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := loadConfig(a.cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("workspace") {
		cfg.Workspace.Root = a.workspace
	}
	if a.autoConfirm {
		cfg.Workspace.AutoConfirm = true
	}
	if flags.Changed("approval") {
		cfg.Workspace.Approval = a.approval
	}
	switch {
	case a.verbose:
		cfg.Logging.Level = "debug"
	case os.Getenv("LOG_LEVEL") == "" && cfg.Logging.Level == config.Default().Logging.Level:
		// failures are already reported on stderr by report
		cfg.Logging.Level = "error"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// open returns the workspace client, creating it on first use
func (a *app) open() (*fsclient.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	client, err := fsclient.New(fsclient.Config{
		Root:        a.cfg.Workspace.Root,
		AutoConfirm: a.cfg.Workspace.AutoConfirm,
		Approver:    a.approver(),
		HistorySize: a.cfg.Workspace.HistorySize,
		Logger:      a.logger.Named("fsclient"),
	})
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

func (a *app) approver() confirm.Approver {
	switch a.cfg.Workspace.Approval {
	case config.ApprovalAllow:
		return confirm.AllowAll
	case config.ApprovalDeny:
		return confirm.DenyAll
	default:
		return confirm.NewPrompter(a.stdin, a.stderr)
	}
}

func (a *app) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
