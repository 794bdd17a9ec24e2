package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths_OutputFiles(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "out"
	p := cfg.Paths()

	assert.Equal(t, filepath.Join("out", "long_capture.csv"), p.LongCSV("data/capture.csv"))
	assert.Equal(t, filepath.Join("out", "clean_capture.csv"), p.CleanCSV("data/capture.csv"))
	assert.Equal(t, filepath.Join("out", "aggregates_FCY.csv"), p.AggregatesCSV("FCY"))
	assert.Equal(t, filepath.Join("out", "aggregates_Norway___FCY.csv"), p.AggregatesCSV("Norway | FCY"))
	assert.Equal(t, filepath.Join("out", "trend_FCY.svg"), p.PlotFile("FCY", "svg"))
	assert.Equal(t, filepath.Join("out", "excluded_groups.csv"), p.ExcludedCSV())
	assert.Equal(t, filepath.Join("out", "summary.csv"), p.SummaryCSV())
	assert.Equal(t, filepath.Join("out", "fishstat_capture.xlsx"), p.WorkbookPath("capture.xlsx"))
	assert.Equal(t, "logs", p.LogsDir)
}

func TestPaths_InputPath(t *testing.T) {
	p := &Paths{DataDir: "data"}

	abs := filepath.Join(t.TempDir(), "x.csv")
	assert.Equal(t, abs, p.InputPath(abs))
	assert.Equal(t, filepath.Join("data", "missing.csv"), p.InputPath("missing.csv"))
}

func TestPaths_EnsureDirectories(t *testing.T) {
	root := t.TempDir()
	p := &Paths{
		OutputDir: filepath.Join(root, "out", "nested"),
		LogsDir:   filepath.Join(root, "logs"),
	}

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "FCY", SafeName("FCY"))
	assert.Equal(t, "C_te_d_Ivoire", SafeName("Côte d'Ivoire"))
	assert.Equal(t, "all", SafeName("  "))
}
