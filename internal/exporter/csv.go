package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/textenc"
)

// utf8BOM marks UTF-8 text for spreadsheet tools
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger   *slog.Logger
	encoding string
	bom      bool
}

// CSVOptions configures the writer for every file it produces
type CSVOptions struct {
	Encoding  string // Output encoding label (default: utf-8)
	BOMPrefix bool   // Add UTF-8 BOM; ignored for other encodings
}

// NewCSVWriter creates a CSV writer. An unknown encoding is a CONFIG error.
func NewCSVWriter(logger *slog.Logger, opts CSVOptions) (*CSVWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Encoding == "" {
		opts.Encoding = textenc.UTF8
	}
	if _, err := textenc.Lookup(opts.Encoding); err != nil {
		return nil, apperrors.NewConfigError("unsupported CSV encoding", err).
			WithContext("encoding", opts.Encoding)
	}

	return &CSVWriter{
		logger:   logger,
		encoding: opts.Encoding,
		bom:      opts.BOMPrefix && textenc.IsUTF8(opts.Encoding),
	}, nil
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
	Append  bool
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Debug("writing CSV file",
		slog.String("file_path", filePath),
		slog.String("encoding", w.encoding),
		slog.Int("record_count", len(options.Records)))

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := openForWrite(filePath, flags)
	if err != nil {
		return err
	}

	if err := w.write(file, options); err != nil {
		file.Close()
		w.discard(filePath, options.Append)
		return apperrors.NewIOError("failed to write CSV file", filePath, err)
	}

	if err := file.Close(); err != nil {
		w.discard(filePath, options.Append)
		return apperrors.NewIOError("failed to close CSV file", filePath, err)
	}
	return nil
}

// discard removes a partially written file. Appended files keep their
// earlier contents.
func (w *CSVWriter) discard(filePath string, appended bool) {
	if appended {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("failed to remove partial CSV file",
			slog.String("file_path", filePath),
			slog.String("error", err.Error()))
	}
}

// Write renders a CSV table to out using the writer's encoding
func (w *CSVWriter) Write(out io.Writer, headers []string, records [][]string) error {
	return w.write(out, WriteOptions{Headers: headers, Records: records})
}

func (w *CSVWriter) write(out io.Writer, options WriteOptions) error {
	if w.bom && !options.Append {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	enc, err := textenc.NewWriter(out, w.encoding)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(enc)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return enc.Close()
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	path   string
	file   *os.File
	enc    io.WriteCloser
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates a file and writes the header row
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	file, err := openForWrite(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return nil, err
	}

	if w.bom {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, apperrors.NewIOError("failed to write BOM", filePath, err)
		}
	}

	enc, err := textenc.NewWriter(file, w.encoding)
	if err != nil {
		file.Close()
		return nil, apperrors.NewConfigError("unsupported CSV encoding", err)
	}

	s := &StreamWriter{
		path:   filePath,
		file:   file,
		enc:    enc,
		writer: csv.NewWriter(enc),
	}

	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			file.Close()
			return nil, apperrors.NewIOError("failed to write headers", filePath, err)
		}
	}

	return s, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to write record %d", s.rows+1), s.path, err)
	}
	s.rows++
	return nil
}

// Rows returns the number of records written so far
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return apperrors.NewIOError("failed to flush CSV file", s.path, err)
	}
	if err := s.enc.Close(); err != nil {
		s.Abort()
		return apperrors.NewIOError("failed to encode CSV file", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.path)
		return apperrors.NewIOError("failed to close CSV file", s.path, err)
	}
	return nil
}

// Abort closes the stream writer and removes the partial file
func (s *StreamWriter) Abort() {
	s.file.Close()
	os.Remove(s.path)
}

// openForWrite creates parent directories and opens path
func openForWrite(path string, flags int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.NewIOError("failed to create output directory", path, err)
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open output file", path, err)
	}
	return file, nil
}
