package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/internal/features"
	"github.com/hupe1980/subfilter/internal/logging"
	"github.com/hupe1980/subfilter/pkg/subfilter"
)

// registerFeatureFlag adds the --feature flag shared by the commands that
// build a filter.
func registerFeatureFlag(cmd *cobra.Command, names *[]string) {
	cmd.Flags().StringArrayVar(names, "feature", nil,
		"enable a feature (repeatable); overrides the config file's enabled list")
	_ = cmd.RegisterFlagCompletionFunc("feature", completeFeatures)
}

// parseDirectionFlag resolves a --direction value. An empty or unknown
// direction is a usage error.
func parseDirectionFlag(value string) (subfilter.Direction, error) {
	if value == "" {
		return "", usageError(fmt.Errorf("--direction is required"))
	}

	d, err := subfilter.ParseDirection(value)
	if err != nil {
		return "", usageError(err)
	}

	return d, nil
}

// buildFilter reads the feature sections of the config file and returns a
// filter bound to the enabled features. Explicit --feature names replace
// the config file's enabled list. Configuration problems are usage errors.
func buildFilter(ctx context.Context, featureNames []string) (*subfilter.Filter, *features.Set, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	custom, err := config.LoadFeatureConfig(cfg.ConfigFile)
	if err != nil {
		return nil, nil, usageError(err)
	}

	names := featureNames
	if len(names) == 0 {
		names = custom.Enabled
	}

	set, err := features.New(names, custom, features.WithLogger(logger))
	if err != nil {
		return nil, nil, usageError(err)
	}

	if !set.Empty() {
		logger.Debug("features enabled", slog.Any("features", set.Names()))
	}

	f := subfilter.New(
		subfilter.WithHook(set),
		subfilter.WithLogger(logger),
	)

	return f, set, nil
}
