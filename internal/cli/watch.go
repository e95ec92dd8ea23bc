package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/internal/logging"
	"github.com/hupe1980/subfilter/internal/watch"
)

type watchOptions struct {
	convertOptions

	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-convert segments whenever the input changes",
		Long: `Watch converts the input like convert does, then again every time the
input file or the config file changes. Feature declarations are re-read
on every run, so edits to the config file take effect immediately.

File changes are debounced to avoid rapid re-runs. Each run reports the
number of segments, failures and segments whose output changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, opts)
		},
	}

	registerConvertFlags(cmd, &opts.convertOptions)
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultOptions().Debounce, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *watchOptions) error {
	if opts.input == "" || opts.input == "-" {
		return usageError(fmt.Errorf("--input (-i) is required for watch mode"))
	}

	d, err := parseDirectionFlag(opts.direction)
	if err != nil {
		return err
	}

	format, err := resolveFormat(opts.format, opts.input, opts.output)
	if err != nil {
		return usageError(err)
	}

	// Fail fast on a broken feature configuration before watching.
	if _, _, err := buildFilter(ctx, opts.features); err != nil {
		return err
	}

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		f, _, err := buildFilter(fnCtx, opts.features)
		if err != nil {
			return nil, err
		}

		report, dest, err := convertSegments(fnCtx, cmd, &opts.convertOptions, d, format, f)
		if err != nil {
			return nil, err
		}

		writeFailures(cmd.ErrOrStderr(), report.Failures())

		return &watch.RunResult{
			Outputs:     report.Outputs(),
			Failed:      len(report.Failures()),
			Destination: dest,
		}, nil
	}

	files := []string{opts.input}
	if cfgFile := config.FromContext(ctx).ConfigFile; cfgFile != "" {
		files = append(files, cfgFile)
	}

	return watch.Run(ctx, watch.Options{
		Files:    files,
		Debounce: opts.debounce,
		Logger:   logging.FromContext(ctx),
		Out:      cmd.ErrOrStderr(),
	}, runFn)
}
