package subfilter

import "github.com/hupe1980/subfilter/pkg/pipeline"

// Hook lets a plugin alter the pipeline of a direction. Apply receives a
// freshly built canonical pipeline and returns the pipeline to execute,
// which may be the same value or one derived with the pipeline builders.
//
// Implementations must be safe for concurrent use.
type Hook interface {
	Apply(d Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(d Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error)

// Apply implements Hook.
func (f HookFunc) Apply(d Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
	return f(d, p)
}

// NopHook returns every pipeline unchanged.
type NopHook struct{}

// Apply implements Hook.
func (NopHook) Apply(_ Direction, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
	return p, nil
}
