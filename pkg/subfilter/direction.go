package subfilter

import (
	"strings"

	"github.com/hupe1980/subfilter/pkg/filters"
	"github.com/hupe1980/subfilter/pkg/pipeline"
)

// Direction names a conversion between two segment representations.
type Direction string

// Supported directions.
const (
	FromLayer0ToLayer2   Direction = "fromLayer0ToLayer2"
	FromLayer1ToLayer2   Direction = "fromLayer1ToLayer2"
	FromLayer2ToLayer0   Direction = "fromLayer2ToLayer0"
	FromLayer0ToLayer1   Direction = "fromLayer0ToLayer1"
	FromLayer1ToLayer0   Direction = "fromLayer1ToLayer0"
	FromRawXliffToLayer0 Direction = "fromRawXliffToLayer0"
	FromLayer0ToRawXliff Direction = "fromLayer0ToRawXliff"
)

type directionInfo struct {
	alias       string
	description string
	steps       func() []pipeline.Step
}

// directions holds the canonical step ordering of every direction. The
// constructors return fresh step values so that each conversion gets a
// pipeline of its own.
var directions = map[Direction]directionInfo{
	FromLayer0ToLayer2: {
		alias:       "storage-to-ui",
		description: "storage to UI",
		steps: func() []pipeline.Step {
			return []pipeline.Step{
				filters.PlaceHoldXliffTags{},
				filters.EntitiesDecode{},
				filters.HtmlToPh{},
				filters.LtGtDoubleEncode{},
				filters.RestoreXliffTagsForView{},
				filters.PlaceHoldCtrlCharsForView{},
				filters.LtGtEncode{},
			}
		},
	},
	FromLayer1ToLayer2: {
		alias:       "external-to-ui",
		description: "external service to UI",
		steps: func() []pipeline.Step {
			return []pipeline.Step{
				filters.LtGtDoubleEncode{},
				filters.LtGtEncode{},
			}
		},
	},
	FromLayer2ToLayer0: {
		alias:       "ui-to-storage",
		description: "UI to storage",
		steps: func() []pipeline.Step {
			return []pipeline.Step{
				filters.CtrlCharsPlaceHoldToAscii{},
				filters.PlaceHoldXliffTags{},
				filters.EncodeToRawXML{},
				filters.HtmlToEntities{},
				filters.RestoreXliffTagsContent{},
				filters.RestoreEquivTextPhToXliffOriginal{},
				filters.RestorePlaceHoldersToXLIFFLtGt{},
				filters.SubFilteredPhToHtml{},
			}
		},
	},
	FromLayer0ToLayer1: {
		alias:       "storage-to-external",
		description: "storage to external service",
		steps: func() []pipeline.Step {
			return []pipeline.Step{
				filters.PlaceHoldXliffTags{},
				filters.EncodeToRawXML{},
				filters.EntitiesDecode{},
				filters.HtmlToPh{},
				filters.RestoreXliffTagsContent{},
				filters.RestorePlaceHoldersToXLIFFLtGt{},
			}
		},
	},
	FromLayer1ToLayer0: {
		alias:       "external-to-storage",
		description: "external service to storage",
		steps: func() []pipeline.Step {
			return []pipeline.Step{
				filters.LtGtDoubleEncode{},
				filters.SubFilteredPhToHtml{},
				filters.PlaceHoldXliffTags{},
				filters.EncodeToRawXML{},
				filters.RestoreXliffTagsContent{},
				filters.RestorePlaceHoldersToXLIFFLtGt{},
			}
		},
	},
	FromRawXliffToLayer0: {
		alias:       "file-to-storage",
		description: "raw XLIFF source to storage",
		steps: func() []pipeline.Step {
			return []pipeline.Step{
				filters.PlaceHoldXliffTags{},
				filters.EncodeToRawXML{},
				filters.RestoreXliffTagsContent{},
				filters.RestorePlaceHoldersToXLIFFLtGt{},
			}
		},
	},
	FromLayer0ToRawXliff: {
		alias:       "storage-to-file",
		description: "storage to raw XLIFF export",
		steps: func() []pipeline.Step {
			return []pipeline.Step{
				filters.PlaceHoldXliffTags{},
				filters.HtmlToEntities{},
				filters.RestoreXliffTagsForView{},
			}
		},
	},
}

// Directions returns every supported direction in a stable order.
func Directions() []Direction {
	return []Direction{
		FromLayer0ToLayer2,
		FromLayer1ToLayer2,
		FromLayer2ToLayer0,
		FromLayer0ToLayer1,
		FromLayer1ToLayer0,
		FromRawXliffToLayer0,
		FromLayer0ToRawXliff,
	}
}

// ParseDirection resolves a direction name or its kebab-case alias
// (e.g. "storage-to-ui"). Matching is case-insensitive.
func ParseDirection(s string) (Direction, error) {
	s = strings.TrimSpace(s)

	for _, d := range Directions() {
		if strings.EqualFold(s, string(d)) || strings.EqualFold(s, directions[d].alias) {
			return d, nil
		}
	}

	return "", &pipeline.UnsupportedDirectionError{Direction: s}
}

// Valid reports whether d is a supported direction.
func (d Direction) Valid() bool {
	_, ok := directions[d]
	return ok
}

// Alias returns the kebab-case alias of d, or "" for unknown directions.
func (d Direction) Alias() string { return directions[d].alias }

// Description returns a short human-readable description of d.
func (d Direction) Description() string { return directions[d].description }

func (d Direction) String() string { return string(d) }

// Canonical returns a fresh pipeline with the default step ordering of d,
// before any hook is applied.
func Canonical(d Direction) (*pipeline.Pipeline, error) {
	info, ok := directions[d]
	if !ok {
		return nil, &pipeline.UnsupportedDirectionError{Direction: string(d)}
	}

	return pipeline.New(info.steps()...), nil
}
