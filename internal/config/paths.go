package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains every location a pipeline run reads from or writes to.
// This is the single source of truth for output file names.
type Paths struct {
	DataDir   string
	OutputDir string
	LogsDir   string
}

// Paths derives the run paths from the configuration
func (c *Config) Paths() *Paths {
	logsDir := ""
	if c.Logging.FilePath != "" {
		logsDir = filepath.Dir(c.Logging.FilePath)
	}
	return &Paths{
		DataDir:   c.DataDir,
		OutputDir: c.OutputDir,
		LogsDir:   logsDir,
	}
}

// EnsureDirectories creates the output and log directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.OutputDir}
	if p.LogsDir != "" {
		dirs = append(dirs, p.LogsDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// InputPath resolves an input file name. Absolute paths and paths that
// exist relative to the working directory are returned unchanged; anything
// else is looked up in DataDir.
func (p *Paths) InputPath(name string) string {
	if filepath.IsAbs(name) || FileExists(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// CleanCSV returns the path of the cleaned wide table for an input file
func (p *Paths) CleanCSV(input string) string {
	return filepath.Join(p.OutputDir, "clean_"+baseName(input)+".csv")
}

// LongCSV returns the path of the reshaped long table for an input file
func (p *Paths) LongCSV(input string) string {
	return filepath.Join(p.OutputDir, "long_"+baseName(input)+".csv")
}

// AggregatesCSV returns the per-year aggregate path for a group
func (p *Paths) AggregatesCSV(group string) string {
	return filepath.Join(p.OutputDir, "aggregates_"+SafeName(group)+".csv")
}

// ExcludedCSV returns the path listing groups below min_samples
func (p *Paths) ExcludedCSV() string {
	return filepath.Join(p.OutputDir, "excluded_groups.csv")
}

// SummaryCSV returns the path of the per-group summary statistics
func (p *Paths) SummaryCSV() string {
	return filepath.Join(p.OutputDir, "summary.csv")
}

// PlotFile returns the chart path for a group and image format
func (p *Paths) PlotFile(group, format string) string {
	return filepath.Join(p.OutputDir, "trend_"+SafeName(group)+"."+format)
}

// WorkbookPath returns the XLSX workbook path for an input file
func (p *Paths) WorkbookPath(input string) string {
	return filepath.Join(p.OutputDir, "fishstat_"+baseName(input)+".xlsx")
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SafeName turns a group key into a file-name fragment
func SafeName(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "all"
	}
	return b.String()
}

func baseName(path string) string {
	base := filepath.Base(path)
	return SafeName(strings.TrimSuffix(base, filepath.Ext(base)))
}
