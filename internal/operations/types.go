package operations

import (
	"time"

	"fishstat/internal/dataprocessing"
	"fishstat/pkg/contracts/domain"
)

// Pipeline stage identifiers
const (
	StageIDRead      = "read"
	StageIDClean     = "clean"
	StageIDReshape   = "reshape"
	StageIDAggregate = "aggregate"
	StageIDPlot      = "plot"
	StageIDExport    = "export"
)

// Pipeline stage names
const (
	StageNameRead      = "Read Input"
	StageNameClean     = "Clean Data"
	StageNameReshape   = "Reshape to Long Format"
	StageNameAggregate = "Aggregate"
	StageNamePlot      = "Plot Trend"
	StageNameExport    = "Export Results"
)

// StageOrder lists the stage ids in execution order
var StageOrder = []string{
	StageIDRead,
	StageIDClean,
	StageIDReshape,
	StageIDAggregate,
	StageIDPlot,
	StageIDExport,
}

// Default timeouts
const (
	DefaultStageTimeout = 10 * time.Minute
)

// RunOptions selects what one pipeline run does. Zero values fall back
// to the configuration.
type RunOptions struct {
	Input     string // input table; empty means input_file or the newest table in data_dir
	Species   string // group that is plotted; empty means default_species
	Filter    string // restrict aggregation to one group key
	Mode      string // overrides analysis.mode
	StartYear int    // overrides start_year when non-zero
	EndYear   int    // overrides end_year when non-zero

	SkipPlot   bool
	SkipExport bool

	// StopAfter ends the run after the named stage; later stages are
	// skipped
	StopAfter string
}

// RunData carries the tables produced by each stage to the next
type RunData struct {
	InputPath   string
	Raw         *domain.RawTable
	Clean       *domain.CleanTable
	CleanReport *dataprocessing.CleanReport
	Long        *domain.LongTable
	Result      *domain.AggregateResult
	Summaries   []domain.GroupSummary
	PlotGroup   string
	Outputs     []string
}

// RunResponse summarizes a finished run
type RunResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatus       `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Outputs  []string              `json:"outputs,omitempty"`
	Error    string                `json:"error,omitempty"`
}
