// Package batch converts many segments concurrently.
//
// Conversions are independent CPU-bound calls, so a batch fans them out
// with errgroup under a concurrency limit and collects the results in
// input order. A failing segment does not stop the batch; its error is kept
// on its Result. Identical segments can be memoized for the lifetime of the
// Processor.
package batch

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/subfilter/pkg/subfilter"
)

// Converter converts one segment. *subfilter.Filter implements it.
type Converter interface {
	Convert(d subfilter.Direction, segment string) (string, error)
}

// Result is the outcome for one input segment.
type Result struct {
	Index  int
	Input  string
	Output string
	Err    error
}

// Failed reports whether the segment could not be converted.
func (r Result) Failed() bool { return r.Err != nil }

// Report summarizes a batch run.
type Report struct {
	// RunID identifies the run in log output.
	RunID     string
	Direction subfilter.Direction
	// Results are in input order.
	Results   []Result
	CacheHits int
	Elapsed   time.Duration
}

// Failures returns the failed results in input order.
func (r *Report) Failures() []Result {
	var failed []Result

	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}

	return failed
}

// Outputs returns the converted segments in input order. Failed segments
// yield an empty string.
func (r *Report) Outputs() []string {
	out := make([]string, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Output
	}

	return out
}

// Option configures a Processor.
type Option func(*Processor)

// WithConcurrency sets the maximum number of concurrent conversions.
// Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger for batch-level messages.
func WithLogger(l *slog.Logger) Option { return func(p *Processor) { p.logger = l } }

// WithCache memoizes successful conversions for ttl. Segments repeat a lot
// in translation memories; a cache hit skips the pipeline entirely.
func WithCache(ttl time.Duration) Option {
	return func(p *Processor) {
		p.cache = gocache.New(ttl, 2*ttl)
	}
}

// Processor runs conversions of many segments.
type Processor struct {
	conv        Converter
	concurrency int
	logger      *slog.Logger
	cache       *gocache.Cache
}

// New creates a Processor. The default concurrency is GOMAXPROCS.
func New(conv Converter, opts ...Option) *Processor {
	p := &Processor{
		conv:        conv,
		concurrency: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return p
}

// Run converts every segment in direction d. Per-segment failures are
// reported on the Results; the returned error is non-nil only when ctx was
// cancelled, in which case the unprocessed segments carry ctx's error.
func (p *Processor) Run(ctx context.Context, d subfilter.Direction, segments []string) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Direction: d,
		Results:   make([]Result, len(segments)),
	}

	logger := p.logger.With(slog.String("run_id", report.RunID), slog.String("direction", string(d)))
	logger.Debug("starting batch",
		slog.Int("segments", len(segments)),
		slog.Int("concurrency", p.concurrency),
	)

	start := time.Now()

	var hits atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, segment := range segments {
		report.Results[i] = Result{Index: i, Input: segment}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Results[i].Err = err
				return err
			}

			out, hit, err := p.convert(d, segment)
			if hit {
				hits.Add(1)
			}

			report.Results[i].Output = out
			report.Results[i].Err = err

			if err != nil {
				logger.Debug("segment failed", slog.Int("index", i), slog.Any("error", err))
			}

			return nil
		})
	}

	err := g.Wait()

	report.CacheHits = int(hits.Load())
	report.Elapsed = time.Since(start)

	logger.Debug("batch complete",
		slog.Int("failed", len(report.Failures())),
		slog.Int("cache_hits", report.CacheHits),
		slog.Duration("elapsed", report.Elapsed),
	)

	return report, err
}

func (p *Processor) convert(d subfilter.Direction, segment string) (string, bool, error) {
	if p.cache == nil {
		out, err := p.conv.Convert(d, segment)
		return out, false, err
	}

	key := string(d) + "\x00" + segment

	if v, ok := p.cache.Get(key); ok {
		if out, ok := v.(string); ok {
			return out, true, nil
		}
	}

	out, err := p.conv.Convert(d, segment)
	if err != nil {
		return "", false, err
	}

	p.cache.SetDefault(key, out)

	return out, false, nil
}
