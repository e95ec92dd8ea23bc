package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/subfilter/pkg/subfilter"
)

type directionEntry struct {
	Name        string   `json:"name"`
	Alias       string   `json:"alias"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

func newDirectionsCommand() *cobra.Command {
	var (
		jsonOutput   bool
		featureNames []string
	)

	cmd := &cobra.Command{
		Use:   "directions",
		Short: "List conversion directions and their pipelines",
		Long: `List every conversion direction with its alias and the steps it runs,
after the enabled features have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDirections(cmd.Context(), cmd, featureNames, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	registerFeatureFlag(cmd, &featureNames)

	return cmd
}

func runDirections(ctx context.Context, cmd *cobra.Command, featureNames []string, jsonOutput bool) error {
	f, _, err := buildFilter(ctx, featureNames)
	if err != nil {
		return err
	}

	entries := make([]directionEntry, 0, len(subfilter.Directions()))

	for _, d := range subfilter.Directions() {
		p, err := f.Pipeline(d)
		if err != nil {
			return usageError(err)
		}

		entries = append(entries, directionEntry{
			Name:        string(d),
			Alias:       d.Alias(),
			Description: d.Description(),
			Steps:       p.Names(),
		})
	}

	w := cmd.OutOrStdout()

	if jsonOutput {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling directions: %w", err)
		}

		_, err = fmt.Fprintln(w, string(data))

		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTION\tALIAS\tSTEPS")

	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Alias, strings.Join(e.Steps, " -> "))
	}

	return tw.Flush()
}

// directionList renders "name (alias)" pairs for help texts.
func directionList() string {
	parts := make([]string, 0, len(subfilter.Directions()))
	for _, d := range subfilter.Directions() {
		parts = append(parts, fmt.Sprintf("%s (%s)", d, d.Alias()))
	}

	return strings.Join(parts, ", ")
}
