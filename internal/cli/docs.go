package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/subfilter/internal/docs"
	"github.com/hupe1980/subfilter/internal/logging"
	"github.com/hupe1980/subfilter/internal/segio"
	"github.com/hupe1980/subfilter/internal/version"
)

type docsOptions struct {
	format     string
	title      string
	outputFile string
	features   []string
}

func newDocsCommand() *cobra.Command {
	opts := &docsOptions{}

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Document the effective conversion pipelines",
		Long: `Generate documentation of the pipeline every direction runs, after the
enabled features have been applied. Steps added by features are marked
and removed steps are listed.

Supports markdown and HTML output formats.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDocs(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "output format (markdown, html)")
	cmd.Flags().StringVar(&opts.title, "title", "", "override document title")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "write to file instead of stdout")
	registerFeatureFlag(cmd, &opts.features)

	return cmd
}

func runDocs(ctx context.Context, cmd *cobra.Command, opts *docsOptions) error {
	formatter, err := docs.NewFormatter(opts.format)
	if err != nil {
		return usageError(err)
	}

	f, set, err := buildFilter(ctx, opts.features)
	if err != nil {
		return err
	}

	model, err := docs.Collect(f, set.Features())
	if err != nil {
		return usageError(err)
	}

	model.Title = opts.title
	model.Version = version.GetInfo().Version

	var buf bytes.Buffer
	if err := formatter.Format(&buf, model); err != nil {
		return failureError(fmt.Errorf("rendering docs: %w", err))
	}

	dst, _ := destination(cmd, opts.outputFile, logging.FromContext(ctx))
	if err := dst.Write(buf.Bytes()); err != nil {
		return failureError(err)
	}

	return nil
}
