package validation

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediapulse/internal/ingest"
)

// sniffLen is how much of an upload is inspected for binary content
const sniffLen = 8 << 10

var (
	// ErrNotWorkbook means a spreadsheet upload does not carry the zip container signature
	ErrNotWorkbook = errors.New("content is not an xlsx workbook")

	// ErrBinaryContent means a text upload contains NUL bytes
	ErrBinaryContent = errors.New("content is binary, not delimited text")
)

var zipMagic = []byte("PK\x03\x04")

// FileValidator checks input files and output locations for the report
// command and sniffs uploaded bytes before they reach a reader.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputFile checks that path is a readable regular file with a
// supported extension. Office lock files ("~$report.xlsx") are rejected.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist", slog.String("file", path))
		return fmt.Errorf("input file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory", slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	if !ingest.Supported(path) {
		v.logger.Error("Input file has an unsupported extension",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, filepath.Ext(path))
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary office file", slog.String("file", path))
		return fmt.Errorf("%s is a temporary office lock file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("input file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists, creating it when needed, and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that the directory holding path is writable
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// CheckContent sniffs uploaded bytes against the format implied by name.
// Workbooks must start with the zip signature and delimited text must not
// contain NUL bytes. Unsupported extensions pass through so the reader can
// report them. Failures are ingest parse errors.
func (v *FileValidator) CheckContent(name string, data []byte) error {
	if !ingest.Supported(name) {
		return nil
	}

	var cause error
	if ingest.IsWorkbook(name) {
		if !bytes.HasPrefix(data, zipMagic) {
			cause = ErrNotWorkbook
		}
	} else if bytes.IndexByte(data[:min(len(data), sniffLen)], 0) >= 0 {
		cause = ErrBinaryContent
	}
	if cause == nil {
		return nil
	}

	v.logger.Warn("Upload content does not match its extension",
		slog.String("filename", name),
		slog.Int("bytes", len(data)),
		slog.String("reason", cause.Error()))
	return &ingest.ParseError{Err: cause}
}
