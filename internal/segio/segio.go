// Package segio reads and writes lists of segments.
//
// Three formats are supported: "lines" (one segment per line), "json" (an
// array of strings) and "yaml" (a sequence of strings). Only json and yaml
// can carry segments that contain line breaks.
package segio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a segment list encoding.
type Format string

// Supported formats.
const (
	FormatLines Format = "lines"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats returns the supported formats.
func Formats() []Format { return []Format{FormatLines, FormatJSON, FormatYAML} }

// ParseFormat validates a format name. An empty name selects lines.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatLines, nil
	case FormatLines, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be one of lines, json, yaml", s)
	}
}

// DetectFormat guesses the format from a file extension, falling back to
// lines.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatLines
	}
}

// Read decodes a segment list from r.
func Read(r io.Reader, f Format) ([]string, error) {
	switch f {
	case FormatLines:
		return readLines(r)
	case FormatJSON:
		var segments []string
		if err := json.NewDecoder(r).Decode(&segments); err != nil {
			if err == io.EOF {
				return nil, nil
			}

			return nil, fmt.Errorf("decoding json segments: %w", err)
		}

		return segments, nil
	case FormatYAML:
		var segments []string
		if err := yaml.NewDecoder(r).Decode(&segments); err != nil {
			if err == io.EOF {
				return nil, nil
			}

			return nil, fmt.Errorf("decoding yaml segments: %w", err)
		}

		return segments, nil
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

// readLines splits on LF. A trailing line break does not start another
// segment, and CR before LF is kept as part of the segment.
func readLines(r io.Reader) ([]string, error) {
	var segments []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(scanLF)

	for sc.Scan() {
		segments = append(segments, sc.Text())
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading segments: %w", err)
	}

	return segments, nil
}

// scanLF is bufio.ScanLines without the CR stripping.
func scanLF(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

// Write encodes segments to w.
func Write(w io.Writer, f Format, segments []string) error {
	if segments == nil {
		segments = []string{}
	}

	switch f {
	case FormatLines:
		for i, s := range segments {
			if strings.Contains(s, "\n") {
				return fmt.Errorf("segment %d contains a line break: use json or yaml", i)
			}
		}

		bw := bufio.NewWriter(w)
		for _, s := range segments {
			_, _ = bw.WriteString(s)
			_ = bw.WriteByte('\n')
		}

		if err := bw.Flush(); err != nil {
			return fmt.Errorf("writing segments: %w", err)
		}

		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")

		if err := enc.Encode(segments); err != nil {
			return fmt.Errorf("encoding json segments: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(segments); err != nil {
			return fmt.Errorf("encoding yaml segments: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml segments: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}
