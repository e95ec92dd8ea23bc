// Package cli implements the cobra command tree for subfilter.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/internal/logging"
)

// Process exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error   { return &ExitError{Code: exitUsage, Err: err} }
func failureError(err error) error { return &ExitError{Code: exitFailure, Err: err} }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return exitFailure
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile string
		logOut  io.Closer
	)

	cmd := &cobra.Command{
		Use:   "subfilter",
		Short: "Convert translation segments between storage, service and UI layers",
		Long: `subfilter converts translation segments between the representations
used by a CAT tool: storage (Layer 0), external services such as machine
translation (Layer 1), and the editor UI (Layer 2), as well as raw XLIFF.

Each direction runs a fixed pipeline of sub-filtering steps. Features,
built in or declared in the config file, can extend those pipelines, e.g.
to mask printf or Twig variables before segments leave storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return usageError(err)
			}

			w := logging.Writer(cfg, cmd.ErrOrStderr())
			logOut = w
			logger := logging.SetupWithWriter(cfg, w)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
				slog.Int("concurrency", cfg.Concurrency),
			)

			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if logOut != nil {
				return logOut.Close()
			}

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .subfilter.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.String("log-file", "", "write logs to a rotating file instead of stderr")
	pf.Int("log-max-size", 10, "log file size in MB before rotation")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.Int("concurrency", config.Default().Concurrency, "maximum number of segments converted in parallel")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.AddCommand(
		newVersionCommand(),
		newConvertCommand(),
		newDirectionsCommand(),
		newRoundtripCommand(),
		newDocsCommand(),
		newWatchCommand(),
		newCompletionCommand(),
	)

	return cmd
}
