package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/files"
	"fishstat/internal/infrastructure"
)

// FileValidator checks input tables and output directories before a
// stage touches them, so failures surface as IO errors naming the path
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	return &FileValidator{
		logger: infrastructure.WithComponent(logger, "file_validator"),
	}
}

// ValidateInputFile checks that path is a readable table with a
// supported extension and not an editor lock file
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewIOError("input file not accessible", path, err)
	}
	if info.IsDir() {
		return apperrors.NewIOError("input path is a directory", path, nil)
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return apperrors.NewIOError("input is a temporary Excel lock file", path, nil)
	}
	if !files.IsInputFile(base) {
		return apperrors.NewIOError("unsupported input format", path, nil).
			WithContext("extension", strings.ToLower(filepath.Ext(base))).
			WithContext("supported", files.InputExtensions)
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewIOError("input file not readable", path, err)
	}
	file.Close()

	v.logger.Debug("input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory creates dir if needed and verifies it is
// writable by creating and removing a scratch file
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewIOError("failed to create output directory", dir, err)
	}

	scratch, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		return apperrors.NewIOError("output directory is not writable", dir, err)
	}
	name := scratch.Name()
	scratch.Close()
	os.Remove(name)

	v.logger.Debug("output directory validated",
		slog.String("directory", dir))
	return nil
}
