package segio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Destination receives an encoded segment list.
type Destination interface {
	Write(data []byte) error
}

// StreamDestination writes to an io.Writer, usually stdout.
type StreamDestination struct {
	out io.Writer
}

// NewStreamDestination returns a destination for w. If w is nil, os.Stdout
// is used.
func NewStreamDestination(w io.Writer) *StreamDestination {
	if w == nil {
		w = os.Stdout
	}

	return &StreamDestination{out: w}
}

// Write sends data to the stream.
func (sd *StreamDestination) Write(data []byte) error {
	if _, err := sd.out.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}

// FileDestination writes to a file, creating parent directories as needed.
type FileDestination struct {
	path   string
	perm   os.FileMode
	logger *slog.Logger
}

// FileOption configures a FileDestination.
type FileOption func(*FileDestination)

// WithPermissions overrides the default file permissions (0644).
func WithPermissions(perm os.FileMode) FileOption {
	return func(fd *FileDestination) { fd.perm = perm }
}

// WithLogger sets the logger used for overwrite warnings.
func WithLogger(logger *slog.Logger) FileOption {
	return func(fd *FileDestination) { fd.logger = logger }
}

// NewFileDestination returns a destination writing to path.
func NewFileDestination(path string, opts ...FileOption) *FileDestination {
	fd := &FileDestination{
		path:   path,
		perm:   0o644,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(fd)
	}

	return fd
}

// Write creates parent directories and replaces the file's contents.
func (fd *FileDestination) Write(data []byte) error {
	dir := filepath.Dir(fd.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if _, err := os.Stat(fd.path); err == nil {
		fd.logger.Warn("overwriting existing file", slog.String("path", fd.path))
	}

	if err := os.WriteFile(fd.path, data, fd.perm); err != nil {
		return fmt.Errorf("writing file %s: %w", fd.path, err)
	}

	return nil
}

// Path returns the output file path.
func (fd *FileDestination) Path() string { return fd.path }

// WriteTo encodes segments in format f and hands them to dst in one write,
// so a file destination is never left half written.
func WriteTo(dst Destination, f Format, segments []string) error {
	var buf bytes.Buffer
	if err := Write(&buf, f, segments); err != nil {
		return err
	}

	return dst.Write(buf.Bytes())
}

// ReadFile reads a segment list from path. The format is detected from the
// extension when f is empty. A path of "-" reads stdin.
func ReadFile(path string, f Format) ([]string, error) {
	if f == "" {
		f = DetectFormat(path)
	}

	if path == "-" {
		return Read(os.Stdin, f)
	}

	file, err := os.Open(path) //nolint:gosec // path comes from the user
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	segments, err := Read(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return segments, nil
}
