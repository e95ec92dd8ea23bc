// Package docs describes the effective conversion pipelines, after the
// enabled features have been applied, as Markdown or HTML.
package docs

import (
	"fmt"

	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/pkg/subfilter"
)

// StepInfo is one step of an effective pipeline.
type StepInfo struct {
	Name string
	// Added is set for steps that are not part of the canonical pipeline.
	Added bool
}

// DirectionInfo describes the pipeline of one direction.
type DirectionInfo struct {
	Name        string
	Alias       string
	Description string
	Steps       []StepInfo
	// Removed lists canonical steps the features dropped.
	Removed []string
}

// Altered reports whether features changed the pipeline.
func (d DirectionInfo) Altered() bool {
	if len(d.Removed) > 0 {
		return true
	}

	for _, s := range d.Steps {
		if s.Added {
			return true
		}
	}

	return false
}

// FeatureInfo describes an enabled feature.
type FeatureInfo struct {
	Name        string
	Description string
	Requires    string
	Extends     string
	Rules       int
}

// DocModel is the data rendered by a Formatter.
type DocModel struct {
	// Title overrides the document title.
	Title      string
	Version    string
	Features   []FeatureInfo
	Directions []DirectionInfo
}

// Collect builds a DocModel from the pipelines f would run. features are
// the enabled features, in the order they apply.
func Collect(f *subfilter.Filter, features []config.Feature) (*DocModel, error) {
	model := &DocModel{}

	for _, feat := range features {
		model.Features = append(model.Features, FeatureInfo{
			Name:        feat.Name,
			Description: feat.Description,
			Requires:    feat.Requires,
			Extends:     feat.Extends,
			Rules:       len(feat.Rules),
		})
	}

	for _, d := range subfilter.Directions() {
		canonical, err := subfilter.Canonical(d)
		if err != nil {
			return nil, err
		}

		effective, err := f.Pipeline(d)
		if err != nil {
			return nil, fmt.Errorf("building pipeline for %s: %w", d, err)
		}

		steps, removed := compare(canonical.Names(), effective.Names())

		model.Directions = append(model.Directions, DirectionInfo{
			Name:        string(d),
			Alias:       d.Alias(),
			Description: d.Description(),
			Steps:       steps,
			Removed:     removed,
		})
	}

	return model, nil
}

// compare marks the effective steps that are not canonical and returns
// the canonical steps that are gone. Step names may repeat, so they are
// counted rather than looked up.
func compare(canonical, effective []string) ([]StepInfo, []string) {
	remaining := make(map[string]int, len(canonical))
	for _, name := range canonical {
		remaining[name]++
	}

	steps := make([]StepInfo, 0, len(effective))

	for _, name := range effective {
		if remaining[name] > 0 {
			remaining[name]--
			steps = append(steps, StepInfo{Name: name})

			continue
		}

		steps = append(steps, StepInfo{Name: name, Added: true})
	}

	var removed []string

	for _, name := range canonical {
		if remaining[name] > 0 {
			remaining[name]--
			removed = append(removed, name)
		}
	}

	return steps, removed
}
