package features

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Masterminds/semver/v3"

	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/internal/version"
	"github.com/hupe1980/subfilter/pkg/filters"
	"github.com/hupe1980/subfilter/pkg/pipeline"
	"github.com/hupe1980/subfilter/pkg/subfilter"
)

// Option configures how a Set is built.
type Option func(*options)

type options struct {
	registry      *filters.Registry
	engineVersion string
	logger        *slog.Logger
}

// WithRegistry resolves rule steps from r instead of the default registry.
func WithRegistry(r *filters.Registry) Option { return func(o *options) { o.registry = r } }

// WithEngineVersion sets the version that requires constraints are checked
// against (default: the binary's version).
func WithEngineVersion(v string) Option { return func(o *options) { o.engineVersion = v } }

// WithLogger sets the logger for warnings emitted while building the set.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

type compiledRule struct {
	feature string
	action  string
	anchor  string
	step    pipeline.Step
}

// Set is an immutable collection of enabled features. It implements
// subfilter.Hook and is safe for concurrent use.
type Set struct {
	features []config.Feature
	rules    map[subfilter.Direction][]compiledRule
}

var _ subfilter.Hook = (*Set)(nil)

// New resolves the named features against the built-ins and custom, checks
// their version requirements and compiles their rules. Every rule is tried
// against the canonical pipelines so that unknown anchors are reported
// here rather than on the first conversion. Duplicate names are ignored.
func New(names []string, custom *config.FeatureConfig, opts ...Option) (*Set, error) {
	o := options{
		registry:      filters.DefaultRegistry(),
		engineVersion: version.GetInfo().Version,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(&o)
	}

	s := &Set{rules: make(map[subfilter.Direction][]compiledRule)}
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}

		seen[name] = true

		f, err := Resolve(name, custom)
		if err != nil {
			return nil, err
		}

		if err := checkRequires(f, o.engineVersion, o.logger); err != nil {
			return nil, err
		}

		if err := s.compile(f, o.registry); err != nil {
			return nil, err
		}

		s.features = append(s.features, f)
	}

	for _, d := range subfilter.Directions() {
		p, err := subfilter.Canonical(d)
		if err != nil {
			return nil, err
		}

		if _, err := s.Apply(d, p); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Set) compile(f config.Feature, registry *filters.Registry) error {
	for i, r := range f.Rules {
		cr := compiledRule{feature: f.Name, action: r.Action, anchor: r.Anchor}

		if r.Action != config.ActionRemove {
			step, ok := registry.Lookup(r.Step)
			if !ok {
				return &pipeline.ConfigurationError{
					Reason: fmt.Sprintf("feature %q rule %d: unknown step %q", f.Name, i, r.Step),
				}
			}

			cr.step = step
		}

		for _, name := range r.Directions {
			d, err := subfilter.ParseDirection(name)
			if err != nil {
				return &pipeline.ConfigurationError{
					Reason: fmt.Sprintf("feature %q rule %d", f.Name, i),
					Err:    err,
				}
			}

			s.rules[d] = append(s.rules[d], cr)
		}
	}

	return nil
}

// checkRequires enforces the semver constraint of f. Builds whose version
// is not a semantic version skip the check.
func checkRequires(f config.Feature, engineVersion string, logger *slog.Logger) error {
	if f.Requires == "" {
		return nil
	}

	c, err := semver.NewConstraint(f.Requires)
	if err != nil {
		return &pipeline.ConfigurationError{
			Reason: fmt.Sprintf("feature %q has invalid requires constraint %q", f.Name, f.Requires),
			Err:    err,
		}
	}

	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		logger.Warn("skipping version requirement on development build",
			slog.String("feature", f.Name),
			slog.String("requires", f.Requires),
			slog.String("version", engineVersion),
		)

		return nil
	}

	if !c.Check(v) {
		return &pipeline.ConfigurationError{
			Reason: fmt.Sprintf("feature %q requires engine version %s, running %s", f.Name, f.Requires, engineVersion),
		}
	}

	return nil
}

// Apply implements subfilter.Hook. Rules run in the order the features
// were enabled.
func (s *Set) Apply(d subfilter.Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
	for _, r := range s.rules[d] {
		next, err := r.apply(p)
		if err != nil {
			return nil, &pipeline.ConfigurationError{
				Reason: fmt.Sprintf("feature %q in %s", r.feature, d),
				Err:    err,
			}
		}

		p = next
	}

	return p, nil
}

func (r compiledRule) apply(p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
	switch r.action {
	case config.ActionInsertAfter:
		return p.InsertAfter(r.anchor, r.step)
	case config.ActionInsertBefore:
		return p.InsertBefore(r.anchor, r.step)
	case config.ActionReplace:
		return p.Replace(r.anchor, r.step)
	case config.ActionAppend:
		return pipeline.New(p.Steps()...).AddLast(r.step), nil
	case config.ActionRemove:
		if !p.Contains(r.anchor) {
			return nil, &pipeline.ConfigurationError{Reason: fmt.Sprintf("cannot remove %q: not in pipeline", r.anchor)}
		}

		return p.Without(r.anchor), nil
	default:
		return nil, &pipeline.ConfigurationError{Reason: fmt.Sprintf("unknown action %q", r.action)}
	}
}

// Names returns the names of the enabled features in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = f.Name
	}

	return names
}

// Features returns the resolved feature definitions in order.
func (s *Set) Features() []config.Feature {
	return append([]config.Feature(nil), s.features...)
}

// Empty reports whether no feature is enabled.
func (s *Set) Empty() bool { return len(s.features) == 0 }
