package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/giantswarm/kafka-recon/internal/config"
	"github.com/giantswarm/kafka-recon/internal/kafka"
	"github.com/giantswarm/kafka-recon/internal/logging"
	"github.com/giantswarm/kafka-recon/internal/output"
	"github.com/giantswarm/kafka-recon/internal/recon"
	"github.com/giantswarm/kafka-recon/internal/session"
)

// newShellCmd creates the Cobra command for the interactive shell. The
// root command runs the same loop, so `kafka-recon` and
// `kafka-recon shell` are equivalent.
func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive reconnaissance shell",
		Long: `Start the interactive reconnaissance shell. Commands are read one at a
time and processed to completion; a failing command never terminates the
loop. Use 'help' inside the shell for the command list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd)
		},
	}
}

// shell bundles the session with the engines that act on it. One command
// executes at a time; the session's busy guard enforces that for any
// future concurrent caller.
type shell struct {
	out        io.Writer
	printer    *output.Printer
	logger     *slog.Logger
	session    *session.Session
	connector  *kafka.Connector
	discoverer *recon.Discoverer
}

func newShell(out io.Writer, logger *slog.Logger) (*shell, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	sess, err := session.New()
	if err != nil {
		return nil, err
	}
	printer := output.NewPrinter(out)
	return &shell{
		out:        out,
		printer:    printer,
		logger:     logger,
		session:    sess,
		connector:  kafka.NewConnector(printer, logger),
		discoverer: recon.NewDiscoverer(printer, logger),
	}, nil
}

func runShell(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(logLevelFlag)
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), level)

	sh, err := newShell(cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}

	sh.printer.Blank()
	if configFlag != "" {
		sh.execLoad(configFlag)
	} else {
		sh.printer.Successf("Started without initial configuration")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          " └─$ ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize prompt: %w", err)
	}
	defer rl.Close()

	for {
		fmt.Fprintln(sh.out)
		fmt.Fprintf(sh.out, " ┌──(%s)\n", sh.session.Broker())

		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			fmt.Fprintln(sh.out)
			return nil
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("read command: %w", err)
		}

		if !sh.dispatch(cmd, line) {
			return nil
		}
	}
}

// dispatch executes one command line. It returns false when the shell
// should exit. Every command failure is reported and recoverable; only
// exit and prompt-level interrupts end the loop.
func (sh *shell) dispatch(cmd *cobra.Command, line string) bool {
	args, err := shlex.Split(line)
	if err != nil {
		sh.printer.Blank()
		sh.printer.Failf("Could not parse command: %v", err)
		return true
	}
	if len(args) == 0 {
		return true
	}
	sh.printer.Blank()

	sh.logger.Debug("executing command", logging.Command(args[0]))

	if err := sh.session.Acquire(); err != nil {
		sh.printer.Failf("Session busy: %v", err)
		return true
	}
	defer sh.session.Release()

	switch args[0] {
	case "exit":
		return false
	case "help", "?":
		sh.execHelp()
	case "config":
		sh.execConfig()
	case "load":
		if len(args) != 2 {
			sh.printer.Failf("usage: load <file>")
			return true
		}
		sh.execLoad(args[1])
	case "connect":
		sh.execConnect()
	case "disconnect":
		sh.execDisconnect()
	case "cluster":
		sh.execCluster(cmd)
	default:
		sh.printer.Failf("Command not found: %s", args[0])
	}
	return true
}

func (sh *shell) execHelp() {
	sh.printer.Table(
		[]string{"Command", "Description"},
		[][]string{
			{"cluster", "enumerate cluster topology and broker configs"},
			{"config", "show current configuration"},
			{"connect", "create consumer and admin client"},
			{"disconnect", "close consumer and admin client"},
			{"exit", "exit the shell"},
			{"help", "show this help message"},
			{"load <file>", "load kafka config from json file"},
		},
	)
}

func (sh *shell) execConfig() {
	entries := sh.session.Config().Describe()
	if len(entries) == 0 {
		sh.printer.Failf("No configuration")
		return
	}
	sh.printConfigEntries(entries)
}

func (sh *shell) execLoad(path string) {
	delta, err := sh.session.Config().Load(path)
	if err != nil {
		if errors.Is(err, config.ErrNotObject) || errors.Is(err, config.ErrNotFlat) {
			sh.printer.Failf("Configuration must be a flat object")
		} else {
			sh.printer.Failf("Could not load file: %s", path)
		}
		sh.logger.Debug("config load failed", logging.Err(err))
		return
	}
	sh.printer.Successf("Loaded configuration from file:")
	sh.printer.Blank()
	sh.printConfigEntries(config.Sorted(delta))
}

func (sh *shell) execConnect() {
	if sh.session.Config().Empty() {
		sh.printer.Failf("Configuration required")
		return
	}
	result := sh.connector.Connect(sh.session.Config())
	sh.session.ApplyConnect(result)
}

func (sh *shell) execDisconnect() {
	sh.connector.Disconnect(sh.session.Admin(), sh.session.Consumer())
	sh.session.ClearHandles()
}

func (sh *shell) execCluster(cmd *cobra.Command) {
	sh.discoverer.DescribeCluster(cmd.Context(), sh.session.Admin(), sh.session.Consumer())
}

func (sh *shell) printConfigEntries(entries []config.Entry) {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.Key, formatConfigValue(entry.Value)})
	}
	sh.printer.Table([]string{"Key", "Value"}, rows)
}

// formatConfigValue renders a configuration value for display. Bootstrap
// candidate lists are joined so they stay on one table row.
func formatConfigValue(value any) string {
	switch v := value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
