package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fishstat/internal/config"
	"fishstat/pkg/contracts/domain"
)

func TestAggregatorConfig_Overrides(t *testing.T) {
	cfg := config.Default()

	base := AggregatorConfig(cfg, RunOptions{})
	assert.Equal(t, domain.ModeSum, base.Mode)
	assert.Equal(t, 1950, base.StartYear)
	assert.Equal(t, 2020, base.EndYear)
	assert.Equal(t, 3, base.MinSamples)
	assert.Equal(t, []string{"Species"}, base.GroupBy)

	over := AggregatorConfig(cfg, RunOptions{Mode: "MEAN", StartYear: 2000, EndYear: 2010, Filter: "FCY"})
	assert.Equal(t, domain.ModeMean, over.Mode)
	assert.Equal(t, 2000, over.StartYear)
	assert.Equal(t, 2010, over.EndYear)
	assert.Equal(t, "FCY", over.Filter)
}

func TestPlotGroup(t *testing.T) {
	cfg := config.Default()
	result := &domain.AggregateResult{Totals: []domain.GroupTotal{{Group: "PLE"}, {Group: "ANE"}}}

	assert.Equal(t, "COD", PlotGroup(cfg, RunOptions{Species: "COD", Filter: "ANE"}, result))
	assert.Equal(t, "ANE", PlotGroup(cfg, RunOptions{Filter: "ANE"}, result))
	assert.Equal(t, "FCY", PlotGroup(cfg, RunOptions{}, result))

	cfg.DefaultSpecies = ""
	assert.Equal(t, "ANE", PlotGroup(cfg, RunOptions{}, result))
}

func TestReadOptions(t *testing.T) {
	cfg := config.Default()
	cfg.InputEncoding = "latin1"
	cfg.InputSheet = "Capture"

	opts := ReadOptions(cfg)
	assert.Equal(t, "latin1", opts.Encoding)
	assert.Equal(t, "Capture", opts.Sheet)
	assert.Equal(t, ',', opts.Delimiter)
}
