// Package export provides consumers that receive export batches and write
// them to a destination.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/esdrain/esdrain/internal/scroll"
)

// Supported output formats.
const (
	// FormatNDJSON writes one document per line.
	FormatNDJSON = "ndjson"

	// FormatJSON writes a single JSON array of documents.
	FormatJSON = "json"
)

// ValidFormat reports whether name is a recognized output format.
func ValidFormat(name string) bool {
	return name == FormatNDJSON || name == FormatJSON
}

// Writer streams exported documents to a file or stdout. It implements
// scroll.Consumer and is single-use: one Writer per export session.
type Writer struct {
	path     string
	format   string
	file     *os.File
	buf      *bufio.Writer
	ownsFile bool
	wrote    bool
	logger   *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger used for progress reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter creates a writer for the given path and format. A path of "-"
// (or empty) writes to stdout.
func NewWriter(path, format string, opts ...Option) (*Writer, error) {
	if !ValidFormat(format) {
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	w := &Writer{
		path:   path,
		format: format,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	if path == "" || path == "-" {
		w.file = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s; %w", path, err)
		}
		w.file = f
		w.ownsFile = true
	}

	w.buf = bufio.NewWriter(w.file)
	return w, nil
}

// Consume writes one batch of documents. Documents are opaque; they are
// written exactly as received.
func (w *Writer) Consume(batch []json.RawMessage, total int64) error {
	for _, doc := range batch {
		if err := w.writeDoc(doc); err != nil {
			return fmt.Errorf("failed to write document; %w", err)
		}
	}

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush output; %w", err)
	}

	w.logger.Debug("batch written", "documents", len(batch), "total", total, "path", w.path)
	return nil
}

func (w *Writer) writeDoc(doc json.RawMessage) error {
	switch w.format {
	case FormatJSON:
		if w.wrote {
			if _, err := w.buf.WriteString(",\n"); err != nil {
				return err
			}
		} else {
			if _, err := w.buf.WriteString("[\n"); err != nil {
				return err
			}
		}
		if _, err := w.buf.Write(doc); err != nil {
			return err
		}
	default: // ndjson
		if _, err := w.buf.Write(doc); err != nil {
			return err
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return err
		}
	}

	w.wrote = true
	return nil
}

// Close finalizes the output and reports the terminal summary. It runs on
// both successful and failed exports; documents already written remain in
// place either way.
func (w *Writer) Close(summary scroll.Summary) error {
	if w.format == FormatJSON {
		if w.wrote {
			if _, err := w.buf.WriteString("\n]\n"); err != nil {
				return fmt.Errorf("failed to finalize output; %w", err)
			}
		} else {
			if _, err := w.buf.WriteString("[]\n"); err != nil {
				return fmt.Errorf("failed to finalize output; %w", err)
			}
		}
	}

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush output; %w", err)
	}

	if w.ownsFile {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("failed to close output file; %w", err)
		}
	}

	if summary.Err != nil {
		w.logger.Warn("export ended with error; partial output retained",
			"session", summary.SessionID, "documents", summary.Documents, "path", w.path)
		return nil
	}

	w.logger.Info("export written",
		"session", summary.SessionID,
		"documents", summary.Documents,
		"batches", summary.Batches,
		"path", w.path)
	return nil
}
