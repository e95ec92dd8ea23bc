package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/internal/diff"
	"github.com/hupe1980/subfilter/pkg/subfilter"
)

// roundTrips maps a --via value to the outbound and return directions.
var roundTrips = map[string][2]subfilter.Direction{
	"ui":       {subfilter.FromLayer0ToLayer2, subfilter.FromLayer2ToLayer0},
	"external": {subfilter.FromLayer0ToLayer1, subfilter.FromLayer1ToLayer0},
}

type roundtripOptions struct {
	via      string
	input    string
	format   string
	features []string
}

func newRoundtripCommand() *cobra.Command {
	opts := &roundtripOptions{}

	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Check that storage segments survive a round trip",
		Long: `Convert storage segments to the UI or external-service layer and back,
and print a unified diff for every segment that does not come back
byte for byte.

Tags, entities and line breaks each start a new diff line, so a changed
entity shows up on its own. The exit code is 1 when any segment differs
or fails to convert.`,
		Example: `  subfilter roundtrip --via ui -i segments.txt
  subfilter roundtrip --via external --feature twig -i tm.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoundtrip(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.via, "via", "ui", "layer to round-trip through: ui, external")
	f.StringVarP(&opts.input, "input", "i", "", "input file (default: stdin)")
	f.StringVar(&opts.format, "format", "", "segment list format: lines, json, yaml (default: from file extension)")
	registerFeatureFlag(cmd, &opts.features)

	_ = cmd.RegisterFlagCompletionFunc("via",
		cobra.FixedCompletions([]string{"ui", "external"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runRoundtrip(ctx context.Context, cmd *cobra.Command, opts *roundtripOptions) error {
	dirs, ok := roundTrips[opts.via]
	if !ok {
		return usageError(fmt.Errorf("invalid --via %q: must be one of ui, external", opts.via))
	}

	format, err := resolveFormat(opts.format, opts.input, "")
	if err != nil {
		return usageError(err)
	}

	f, _, err := buildFilter(ctx, opts.features)
	if err != nil {
		return err
	}

	segments, err := readSegments(cmd, opts.input, format)
	if err != nil {
		return failureError(err)
	}

	proc := newProcessor(ctx, f, false)

	out, err := proc.Run(ctx, dirs[0], segments)
	if err != nil {
		return failureError(fmt.Errorf("converting segments: %w", err))
	}

	back, err := proc.Run(ctx, dirs[1], out.Outputs())
	if err != nil {
		return failureError(fmt.Errorf("converting segments back: %w", err))
	}

	color := !config.FromContext(ctx).NoColor
	w := cmd.OutOrStdout()
	errW := cmd.ErrOrStderr()

	var differ, failed int

	for i, original := range segments {
		switch {
		case out.Results[i].Failed():
			failed++
			fmt.Fprintf(errW, "segment %d: to %s: %v\n", i+1, opts.via, out.Results[i].Err)

			continue
		case back.Results[i].Failed():
			failed++
			fmt.Fprintf(errW, "segment %d: back from %s: %v\n", i+1, opts.via, back.Results[i].Err)

			continue
		}

		result, err := diff.Segments(original, back.Results[i].Output, diff.Options{
			OldLabel: fmt.Sprintf("segment %d", i+1),
			NewLabel: fmt.Sprintf("segment %d via %s", i+1, opts.via),
			Context:  diff.DefaultOptions().Context,
		})
		if err != nil {
			return failureError(err)
		}

		if result.HasDifferences {
			differ++

			diff.Write(w, result, color)
		}
	}

	fmt.Fprintf(errW, "%d segment(s): %d identical, %d differ, %d failed\n",
		len(segments), len(segments)-differ-failed, differ, failed)

	if differ > 0 || failed > 0 {
		return failureError(fmt.Errorf("round trip via %s changed %d and failed %d segment(s)", opts.via, differ, failed))
	}

	return nil
}
