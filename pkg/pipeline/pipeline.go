package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Step is a pure transformation of one segment into another.
// Implementations must be stateless and deterministic so that a single
// instance can be shared by concurrent pipelines.
type Step interface {
	// Name identifies the step in pipelines, hooks and error messages.
	Name() string

	// Transform returns the transformed segment, or an error when the
	// segment contains markup the step cannot round-trip.
	Transform(segment string) (string, error)
}

// StepFunc adapts a plain function into a named Step.
type StepFunc struct {
	StepName string
	Fn       func(segment string) (string, error)
}

// Name implements Step.
func (s StepFunc) Name() string { return s.StepName }

// Transform implements Step.
func (s StepFunc) Transform(segment string) (string, error) { return s.Fn(segment) }

// Pipeline is an ordered, append-only sequence of steps executed left to
// right.
type Pipeline struct {
	steps []Step
}

// New creates a pipeline holding steps in the given order.
func New(steps ...Step) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0, len(steps))}
	for _, s := range steps {
		p.AddLast(s)
	}

	return p
}

// AddLast appends a step to the end of the pipeline. Nil steps are ignored.
func (p *Pipeline) AddLast(s Step) *Pipeline {
	if s != nil {
		p.steps = append(p.steps, s)
	}

	return p
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Steps returns a copy of the steps in execution order.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)

	return out
}

// Names returns the step names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}

	return names
}

// Index returns the position of the first step called name, or -1.
func (p *Pipeline) Index(name string) int {
	for i, s := range p.steps {
		if s.Name() == name {
			return i
		}
	}

	return -1
}

// Contains reports whether a step called name is part of the pipeline.
func (p *Pipeline) Contains(name string) bool { return p.Index(name) >= 0 }

// String renders the pipeline as "A -> B -> C".
func (p *Pipeline) String() string { return strings.Join(p.Names(), " -> ") }

// InsertAfter returns a new pipeline with s placed right after the first
// step called anchor.
func (p *Pipeline) InsertAfter(anchor string, s Step) (*Pipeline, error) {
	i := p.Index(anchor)
	if i < 0 {
		return nil, unknownAnchor(anchor)
	}

	return p.spliced(i+1, i+1, s), nil
}

// InsertBefore returns a new pipeline with s placed right before the first
// step called anchor.
func (p *Pipeline) InsertBefore(anchor string, s Step) (*Pipeline, error) {
	i := p.Index(anchor)
	if i < 0 {
		return nil, unknownAnchor(anchor)
	}

	return p.spliced(i, i, s), nil
}

// Replace returns a new pipeline where the first step called name is
// swapped for s.
func (p *Pipeline) Replace(name string, s Step) (*Pipeline, error) {
	i := p.Index(name)
	if i < 0 {
		return nil, unknownAnchor(name)
	}

	return p.spliced(i, i+1, s), nil
}

// Without returns a new pipeline lacking every step called name. Removing
// an absent step is not an error.
func (p *Pipeline) Without(name string) *Pipeline {
	out := New()
	for _, s := range p.steps {
		if s.Name() != name {
			out.AddLast(s)
		}
	}

	return out
}

// spliced copies the pipeline, replacing steps[from:to] with s.
func (p *Pipeline) spliced(from, to int, s Step) *Pipeline {
	out := &Pipeline{steps: make([]Step, 0, len(p.steps)+1)}
	out.steps = append(out.steps, p.steps[:from]...)
	out.AddLast(s)
	out.steps = append(out.steps, p.steps[to:]...)

	return out
}

// Run applies every step in order, feeding each output to the next step.
// The first failing step aborts the run: partial output is discarded and
// the error is returned. Validation errors are stamped with the name of the
// failing step.
func (p *Pipeline) Run(segment string) (string, error) {
	current := segment

	for _, s := range p.steps {
		out, err := s.Transform(current)
		if err != nil {
			return "", stepError(s.Name(), err)
		}

		current = out
	}

	return current, nil
}

func stepError(name string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Step == "" {
			stamped := *ve
			stamped.Step = name

			return &stamped
		}

		return err
	}

	return fmt.Errorf("step %s: %w", name, err)
}

func unknownAnchor(name string) error {
	return &ConfigurationError{Reason: fmt.Sprintf("pipeline has no step %q", name)}
}
