package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	sigsyaml "sigs.k8s.io/yaml"
)

// Feature rule actions.
const (
	ActionInsertAfter  = "insertAfter"
	ActionInsertBefore = "insertBefore"
	ActionAppend       = "append"
	ActionRemove       = "remove"
	ActionReplace      = "replace"
)

// FeatureConfig holds the plugin feature declarations loaded from the
// config file (.subfilter.yaml).
type FeatureConfig struct {
	// Features are named bundles of pipeline alterations.
	Features []Feature `json:"features,omitempty" validate:"dive"`

	// Enabled lists the features applied by default.
	Enabled []string `json:"enabled,omitempty" validate:"dive,required"`
}

// Feature is a named bundle of pipeline rules.
type Feature struct {
	// Name identifies the feature for --feature and enabled.
	Name string `json:"name" validate:"required"`

	// Requires is a semver constraint on the engine version, e.g. ">= 0.2.0".
	Requires string `json:"requires,omitempty"`

	// Extends names a built-in feature whose rules run before these.
	Extends string `json:"extends,omitempty"`

	// Description is shown by the docs command.
	Description string `json:"description,omitempty"`

	// Rules alter the pipelines of the listed directions, in order.
	Rules []Rule `json:"rules,omitempty" validate:"dive"`
}

// Rule is a single pipeline alteration.
type Rule struct {
	// Directions are direction names or aliases the rule applies to.
	Directions []string `json:"directions" validate:"required,min=1,dive,required"`

	// Action is one of insertAfter, insertBefore, append, remove, replace.
	Action string `json:"action" validate:"required,oneof=insertAfter insertBefore append remove replace"`

	// Anchor is the existing step the action is relative to. For remove it
	// is the step to drop, for replace the step to swap out.
	Anchor string `json:"anchor,omitempty" validate:"required_unless=Action append"`

	// Step is the registered step to insert, append or swap in.
	Step string `json:"step,omitempty" validate:"required_unless=Action remove"`
}

// IsEmpty returns true if the config declares and enables nothing.
func (c *FeatureConfig) IsEmpty() bool {
	return len(c.Features) == 0 && len(c.Enabled) == 0
}

// Lookup returns the declared feature with the given name.
func (c *FeatureConfig) Lookup(name string) (Feature, bool) {
	for _, f := range c.Features {
		if f.Name == name {
			return f, true
		}
	}

	return Feature{}, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report yaml field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// ParseFeatureConfig parses the features and enabled sections from raw
// config file bytes.
func ParseFeatureConfig(data []byte) (*FeatureConfig, error) {
	var cfg FeatureConfig

	if err := sigsyaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing feature config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFeatureConfig reads the feature sections of the config file at path.
// An empty path yields an empty config.
func LoadFeatureConfig(path string) (*FeatureConfig, error) {
	if path == "" {
		return &FeatureConfig{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("reading feature config: %w", err)
	}

	return ParseFeatureConfig(data)
}

// Validate checks the feature config for correctness.
func (c *FeatureConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}

			return fmt.Errorf("invalid feature config: %s", strings.Join(msgs, "; "))
		}

		return fmt.Errorf("invalid feature config: %w", err)
	}

	seen := make(map[string]bool, len(c.Features))
	for i, f := range c.Features {
		if seen[f.Name] {
			return fmt.Errorf("invalid feature config: features[%d]: duplicate name %q", i, f.Name)
		}

		seen[f.Name] = true
	}

	return nil
}

// describeFieldError renders a validator error as "features[0].rules[1].anchor: is required".
func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required", "required_unless":
		return field + ": is required"
	case "min":
		return fmt.Sprintf("%s: needs at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of %s", field, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s", field, fe.Tag())
	}
}
