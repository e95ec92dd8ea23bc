// Package subfilter converts translation segments between their storage,
// external-service and UI representations.
//
// Every conversion direction runs a fixed, ordered pipeline of steps from
// package filters. A [Hook] may alter the pipeline of any direction, for
// example to mask template variables before segments reach a machine
// translation service.
//
// Basic usage:
//
//	f := subfilter.New()
//	ui, err := f.FromLayer0ToLayer2(`Hello&lt;br/&gt;World`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ui)
//
// With a hook:
//
//	f := subfilter.New(
//	    subfilter.WithHook(hook),
//	    subfilter.WithLogger(logger),
//	)
package subfilter

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/hupe1980/subfilter/pkg/pipeline"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option configures a Filter.
type Option func(*Filter)

// WithHook sets the extension hook. A nil hook means NopHook.
func WithHook(h Hook) Option { return func(f *Filter) { f.hook = h } }

// WithLogger sets the logger used for debug output about hook alterations.
func WithLogger(l *slog.Logger) Option { return func(f *Filter) { f.logger = l } }

// Filter is the entry point for segment conversions. It is immutable after
// construction and safe for concurrent use.
type Filter struct {
	hook   Hook
	logger *slog.Logger
}

// New creates a Filter.
func New(opts ...Option) *Filter {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}

	if f.hook == nil {
		f.hook = NopHook{}
	}

	if f.logger == nil {
		f.logger = discardLogger()
	}

	return f
}

// WithHook returns a copy of f bound to h. The receiver is not modified, so
// conversions already running on f are unaffected.
func (f *Filter) WithHook(h Hook) *Filter {
	if h == nil {
		h = NopHook{}
	}

	return &Filter{hook: h, logger: f.logger}
}

// Pipeline builds the pipeline that Convert would run for d: the canonical
// ordering passed through the hook.
func (f *Filter) Pipeline(d Direction) (*pipeline.Pipeline, error) {
	canonical, err := Canonical(d)
	if err != nil {
		return nil, err
	}

	before := canonical.Names()

	p, err := f.hook.Apply(d, canonical)
	if err != nil {
		return nil, fmt.Errorf("applying hook for %s: %w", d, err)
	}

	if p == nil {
		return nil, &pipeline.ConfigurationError{Reason: fmt.Sprintf("hook returned no pipeline for %s", d)}
	}

	if after := p.Names(); !slices.Equal(before, after) {
		f.logger.Debug("hook altered pipeline",
			slog.String("direction", string(d)),
			slog.Any("canonical", before),
			slog.Any("effective", after),
		)
	}

	return p, nil
}

// Convert runs the pipeline of d on segment.
func (f *Filter) Convert(d Direction, segment string) (string, error) {
	p, err := f.Pipeline(d)
	if err != nil {
		return "", err
	}

	return p.Run(segment)
}

// FromLayer0ToLayer2 converts a storage segment for display in the editor.
func (f *Filter) FromLayer0ToLayer2(segment string) (string, error) {
	return f.Convert(FromLayer0ToLayer2, segment)
}

// FromLayer1ToLayer2 converts an external-service segment (e.g. an MT
// suggestion) for display in the editor.
func (f *Filter) FromLayer1ToLayer2(segment string) (string, error) {
	return f.Convert(FromLayer1ToLayer2, segment)
}

// FromLayer2ToLayer0 converts an editor segment back to storage.
func (f *Filter) FromLayer2ToLayer0(segment string) (string, error) {
	return f.Convert(FromLayer2ToLayer0, segment)
}

// FromLayer0ToLayer1 converts a storage segment for an external service.
func (f *Filter) FromLayer0ToLayer1(segment string) (string, error) {
	return f.Convert(FromLayer0ToLayer1, segment)
}

// FromLayer1ToLayer0 converts an external-service segment to storage.
func (f *Filter) FromLayer1ToLayer0(segment string) (string, error) {
	return f.Convert(FromLayer1ToLayer0, segment)
}

// FromRawXliffToLayer0 converts a segment read from an XLIFF file to
// storage.
func (f *Filter) FromRawXliffToLayer0(segment string) (string, error) {
	return f.Convert(FromRawXliffToLayer0, segment)
}

// FromLayer0ToRawXliff converts a storage segment for export to an XLIFF
// file.
func (f *Filter) FromLayer0ToRawXliff(segment string) (string, error) {
	return f.Convert(FromLayer0ToRawXliff, segment)
}
