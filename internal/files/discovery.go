package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "fishstat/internal/errors"
)

// InputExtensions lists the table formats the reader understands
var InputExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds input tables below a base directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// IsInputFile reports whether name has a supported table extension
func IsInputFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range InputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindInputFiles lists supported tables in dir, oldest first
func (d *Discovery) FindInputFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, apperrors.NewIOError("failed to read directory", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsInputFile(entry.Name()) {
			continue
		}
		// skip lock files left by spreadsheet tools
		if strings.HasPrefix(entry.Name(), "~$") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(d.resolve(dir), pattern))
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid pattern %q: %v", pattern, err))
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}

		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}

// ResolveInput returns the path of the input table. A non-empty name is
// taken as is when absolute, otherwise relative to the base directory,
// and must exist. An empty name selects the newest table in the base
// directory.
func (d *Discovery) ResolveInput(name string) (string, error) {
	if name != "" {
		path := d.resolve(name)
		info, err := os.Stat(path)
		if err != nil {
			return "", apperrors.NewIOError("input file not accessible", path, err)
		}
		if info.IsDir() {
			return "", apperrors.NewIOError("input path is a directory", path, nil)
		}
		return path, nil
	}

	files, err := d.FindInputFiles("")
	if err != nil {
		return "", err
	}

	latest, ok := GetLatestFile(files)
	if !ok {
		return "", apperrors.NewNotFoundError("input table").WithContext("path", d.basePath)
	}
	return latest.Path, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.basePath, path)
}
