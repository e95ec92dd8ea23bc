package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc performs one conversion run.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult is the outcome of one conversion run.
type RunResult struct {
	// Outputs are the converted segments in input order.
	Outputs []string
	// Failed is the number of segments that could not be converted.
	Failed int
	// Destination names where the outputs were written.
	Destination string
}

// Options configures the watch behaviour.
type Options struct {
	// Files are the files whose changes trigger a run, typically the input
	// segments and the config file.
	Files []string

	// Debounce is the quiet period before triggering a run.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 300 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run performs an initial run, then re-runs runFn after every change to
// one of opts.Files. It blocks until ctx is cancelled or SIGINT/SIGTERM is
// received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if len(opts.Files) == 0 {
		return fmt.Errorf("no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	targets, err := addTargets(watcher, opts.Files)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %d file(s) (debounce=%s)\n", len(targets), opts.Debounce)

	t := &tracker{opts: opts, runFn: runFn}
	t.run(sigCtx, "(initial)", 0)

	debouncer := NewDebouncer(opts.Debounce, func(path string, events int) {
		t.run(sigCtx, path, events)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, targets) {
				continue
			}

			opts.Logger.Debug("file changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addTargets watches the parent directory of every file, since editors
// often replace a file rather than write to it. It returns the absolute
// target paths.
func addTargets(watcher *fsnotify.Watcher, files []string) (map[string]bool, error) {
	targets := make(map[string]bool, len(files))
	dirs := make(map[string]bool)

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", f, err)
		}

		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("watching %q: %w", f, err)
		}

		targets[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}

		if err := watcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %q: %w", dir, err)
		}

		dirs[dir] = true
	}

	return targets, nil
}

// isRelevant keeps content-changing events on one of the targets.
func isRelevant(event fsnotify.Event, targets map[string]bool) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	return targets[abs]
}

// tracker runs conversions and reports how the outputs changed since the
// previous successful run.
type tracker struct {
	mu       sync.Mutex
	opts     Options
	runFn    RunFunc
	previous []string
	hasRun   bool
}

func (t *tracker) run(ctx context.Context, trigger string, events int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().Format("15:04:05")

	if events > 1 {
		trigger = fmt.Sprintf("%s (%d events)", trigger, events)
	}

	result, err := t.runFn(ctx)
	if err != nil {
		fmt.Fprintf(t.opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(t.opts.Out, "[%s] %s → OK (%d segments, %d failed)\n",
		now, trigger, len(result.Outputs), result.Failed)

	if t.hasRun {
		if changed := ChangedSegments(t.previous, result.Outputs); changed > 0 {
			fmt.Fprintf(t.opts.Out, "  changed: %d segment(s)\n", changed)
		}
	}

	if result.Destination != "" {
		fmt.Fprintf(t.opts.Out, "  wrote: %s\n", result.Destination)
	}

	t.previous = result.Outputs
	t.hasRun = true
}

// ChangedSegments counts the positions at which prev and curr differ,
// including segments present in only one of them.
func ChangedSegments(prev, curr []string) int {
	n := max(len(prev), len(curr))
	changed := 0

	for i := range n {
		if i >= len(prev) || i >= len(curr) || prev[i] != curr[i] {
			changed++
		}
	}

	return changed
}
