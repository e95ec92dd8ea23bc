// Package features turns named feature declarations into an extension hook
// that alters the sub-filtering pipelines.
//
// A feature is a list of rules. Each rule names the directions it applies
// to and an action (insertAfter, insertBefore, append, remove, replace)
// relative to an anchor step. Features are either built in or declared in
// the config file, where they may extend a built-in feature and require a
// minimum engine version.
package features

import (
	"fmt"
	"sort"

	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/pkg/pipeline"
)

// maskingDirections are the directions in which raw markup leaves storage.
var maskingDirections = []string{"fromLayer0ToLayer1", "fromLayer0ToLayer2"}

// builtinFeatures contains the built-in feature definitions.
var builtinFeatures = map[string]config.Feature{
	"sprintf": {
		Name:        "sprintf",
		Description: "Mask printf-style variables such as %s and %1$d.",
		Rules: []config.Rule{{
			Directions: maskingDirections,
			Action:     config.ActionInsertAfter,
			Anchor:     "HtmlToPh",
			Step:       "SprintfToPh",
		}},
	},
	"twig": {
		Name:        "twig",
		Description: "Mask Twig expressions, statements and comments.",
		Rules: []config.Rule{{
			Directions: maskingDirections,
			Action:     config.ActionInsertAfter,
			Anchor:     "HtmlToPh",
			Step:       "TwigToPh",
		}},
	},
}

// BuiltinNames returns the names of all built-in features, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinFeatures))
	for name := range builtinFeatures {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Resolve resolves a feature name by checking built-in features first, then
// the features declared in custom. A custom feature extending a built-in is
// merged with it, the built-in rules first.
func Resolve(name string, custom *config.FeatureConfig) (config.Feature, error) {
	if f, ok := builtinFeatures[name]; ok {
		return f, nil
	}

	if custom != nil {
		if f, ok := custom.Lookup(name); ok {
			if f.Extends != "" {
				base, ok := builtinFeatures[f.Extends]
				if !ok {
					return config.Feature{}, &pipeline.ConfigurationError{
						Reason: fmt.Sprintf("feature %q extends unknown feature %q", name, f.Extends),
					}
				}

				return mergeFeatures(base, f), nil
			}

			return f, nil
		}
	}

	return config.Feature{}, &pipeline.ConfigurationError{Reason: fmt.Sprintf("unknown feature %q", name)}
}

// mergeFeatures appends the rules of ext to those of base. Everything else
// comes from ext.
func mergeFeatures(base, ext config.Feature) config.Feature {
	merged := ext
	merged.Rules = append(append([]config.Rule{}, base.Rules...), ext.Rules...)

	if merged.Description == "" {
		merged.Description = base.Description
	}

	return merged
}
