package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/subfilter/internal/batch"
	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/internal/logging"
	"github.com/hupe1980/subfilter/internal/segio"
	"github.com/hupe1980/subfilter/pkg/subfilter"
)

// cacheTTL bounds how long --cache keeps a converted segment.
const cacheTTL = 10 * time.Minute

type convertOptions struct {
	direction string
	input     string
	output    string
	format    string
	features  []string
	cache     bool
}

func newConvertCommand() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert segments from one layer to another",
		Long: `Convert every segment of the input in the given direction.

The input is a list of segments: one per line, a JSON array of strings or
a YAML sequence of strings. The format follows --format, or else the
extension of --input (or --output). Standard input and output are used
when no file is given.

A segment that cannot be converted is reported on stderr with the failing
step and the offending fragment; the other segments are still written.
The exit code is 1 when any segment failed.

Directions: ` + directionList(),
		Example: `  subfilter convert -d storage-to-ui -i segments.txt
  subfilter convert -d fromLayer0ToLayer1 --feature sprintf -i tm.json -o mt.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd.Context(), cmd, opts)
		},
	}

	registerConvertFlags(cmd, opts)

	return cmd
}

func registerConvertFlags(cmd *cobra.Command, opts *convertOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.direction, "direction", "d", "", "conversion direction, name or alias (required)")
	f.StringVarP(&opts.input, "input", "i", "", "input file (default: stdin)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&opts.format, "format", "", "segment list format: lines, json, yaml (default: from file extension)")
	f.BoolVar(&opts.cache, "cache", false, "convert repeated segments only once")
	registerFeatureFlag(cmd, &opts.features)

	_ = cmd.RegisterFlagCompletionFunc("direction", completeDirections)
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runConvert(ctx context.Context, cmd *cobra.Command, opts *convertOptions) error {
	d, err := parseDirectionFlag(opts.direction)
	if err != nil {
		return err
	}

	format, err := resolveFormat(opts.format, opts.input, opts.output)
	if err != nil {
		return usageError(err)
	}

	f, _, err := buildFilter(ctx, opts.features)
	if err != nil {
		return err
	}

	report, _, err := convertSegments(ctx, cmd, opts, d, format, f)
	if err != nil {
		return err
	}

	if failures := report.Failures(); len(failures) > 0 {
		writeFailures(cmd.ErrOrStderr(), failures)

		return failureError(fmt.Errorf("%d of %d segment(s) failed", len(failures), len(report.Results)))
	}

	return nil
}

// convertSegments reads the input, converts it and writes the outputs. It
// returns the batch report and the name of the destination.
func convertSegments(
	ctx context.Context,
	cmd *cobra.Command,
	opts *convertOptions,
	d subfilter.Direction,
	format segio.Format,
	f *subfilter.Filter,
) (*batch.Report, string, error) {
	logger := logging.FromContext(ctx)

	segments, err := readSegments(cmd, opts.input, format)
	if err != nil {
		return nil, "", failureError(err)
	}

	report, err := newProcessor(ctx, f, opts.cache).Run(ctx, d, segments)
	if err != nil {
		return nil, "", failureError(fmt.Errorf("converting segments: %w", err))
	}

	dst, name := destination(cmd, opts.output, logger)
	if err := segio.WriteTo(dst, format, report.Outputs()); err != nil {
		return nil, "", failureError(err)
	}

	logger.Info("conversion complete",
		slog.String("direction", string(d)),
		slog.Int("segments", len(report.Results)),
		slog.Int("failed", len(report.Failures())),
		slog.Int("cacheHits", report.CacheHits),
		slog.Duration("elapsed", report.Elapsed),
	)

	return report, name, nil
}

func newProcessor(ctx context.Context, f *subfilter.Filter, cache bool) *batch.Processor {
	cfg := config.FromContext(ctx)

	opts := []batch.Option{
		batch.WithConcurrency(cfg.Concurrency),
		batch.WithLogger(logging.FromContext(ctx)),
	}

	if cache {
		opts = append(opts, batch.WithCache(cacheTTL))
	}

	return batch.New(f, opts...)
}

// resolveFormat picks the segment list format from the flag, the input
// file or the output file, in that order.
func resolveFormat(flag, input, output string) (segio.Format, error) {
	switch {
	case flag != "":
		return segio.ParseFormat(flag)
	case input != "" && input != "-":
		return segio.DetectFormat(input), nil
	case output != "":
		return segio.DetectFormat(output), nil
	default:
		return segio.FormatLines, nil
	}
}

func readSegments(cmd *cobra.Command, input string, format segio.Format) ([]string, error) {
	if input == "" || input == "-" {
		segments, err := segio.Read(cmd.InOrStdin(), format)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return segments, nil
	}

	return segio.ReadFile(input, format)
}

func destination(cmd *cobra.Command, output string, logger *slog.Logger) (segio.Destination, string) {
	if output == "" || output == "-" {
		return segio.NewStreamDestination(cmd.OutOrStdout()), "stdout"
	}

	return segio.NewFileDestination(output, segio.WithLogger(logger)), output
}

// writeFailures prints one line per failed segment. Segments are numbered
// from one, matching line numbers of a lines-format input.
func writeFailures(w io.Writer, failures []batch.Result) {
	for _, res := range failures {
		fmt.Fprintf(w, "segment %d: %v\n", res.Index+1, res.Err)
	}
}
