package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"fishstat/internal/config"
	"fishstat/internal/dataprocessing"
	apperrors "fishstat/internal/errors"
	"fishstat/internal/operations"
	"fishstat/pkg/contracts/domain"
)

// GroupInfo describes one group key of the loaded dataset
type GroupInfo struct {
	Group     string `json:"group"`
	Records   int    `json:"records"`
	FirstYear int    `json:"first_year"`
	LastYear  int    `json:"last_year"`
}

// DatasetInfo describes the loaded table
type DatasetInfo struct {
	Source   string    `json:"source"`
	Records  int       `json:"records"`
	Groups   int       `json:"groups"`
	GroupBy  []string  `json:"group_by"`
	LoadedAt time.Time `json:"loaded_at"`
}

// SeriesQuery selects one group and optionally overrides the configured
// mode and year range. Zero values fall back to the configuration.
type SeriesQuery struct {
	Group     string `json:"group" validate:"required"`
	Mode      string `json:"mode" validate:"omitempty,oneof=sum mean"`
	StartYear int    `json:"start" validate:"omitempty,min=1800,max=2200"`
	EndYear   int    `json:"end" validate:"omitempty,min=1800,max=2200"`
}

// SeriesResponse is the aggregated trend of one group
type SeriesResponse struct {
	Group     string                   `json:"group"`
	Mode      domain.AggregateMode     `json:"mode"`
	StartYear int                      `json:"start_year"`
	EndYear   int                      `json:"end_year"`
	Records   []domain.AggregateRecord `json:"records"`
	Total     domain.GroupTotal        `json:"total"`
	Summary   *domain.GroupSummary     `json:"summary,omitempty"`
}

// DatasetService answers queries against one long-format table
type DatasetService struct {
	components *operations.Components
	logger     *slog.Logger
	validate   *validator.Validate

	mu       sync.RWMutex
	long     *domain.LongTable
	groups   []GroupInfo
	loadedAt time.Time
}

// NewDatasetService creates a dataset service. Nothing is loaded until
// Load is called.
func NewDatasetService(components *operations.Components, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &DatasetService{
		components: components,
		logger:     logger.With(slog.String("service", "dataset")),
		validate:   v,
	}
}

// Load runs the read, clean and reshape stages on input and keeps the
// resulting long table. An empty input falls back to input_file and then
// to the newest table in data_dir.
func (s *DatasetService) Load(ctx context.Context, input string) error {
	c := s.components
	pipeline := operations.NewPipeline(s.logger,
		operations.NewReadStage(c),
		operations.NewCleanStage(c),
		operations.NewReshapeStage(c),
	).WithTelemetry(c.Tracer, c.Metrics)

	state := operations.NewOperationState(uuid.NewString(), operations.RunOptions{Input: input})
	if err := pipeline.Run(ctx, state); err != nil {
		return err
	}

	return s.setTable(ctx, state.Data.Long, state.Data.InputPath)
}

// LoadExport loads a long-format CSV previously written by the export
// stage, skipping the read and clean stages. Relative paths that do not
// exist in the working directory are looked up in output_dir.
func (s *DatasetService) LoadExport(ctx context.Context, path string) error {
	c := s.components
	if !filepath.IsAbs(path) && !config.FileExists(path) {
		path = filepath.Join(c.Paths.OutputDir, path)
	}
	if err := c.Validator.ValidateInputFile(path); err != nil {
		return err
	}

	opts := operations.ReadOptions(c.Config)
	opts.Encoding = c.Config.Export.CSVEncoding

	long, err := dataprocessing.ReadLongCSV(path, opts)
	if err != nil {
		return err
	}
	return s.setTable(ctx, long, path)
}

// setTable indexes long and makes it the served table
func (s *DatasetService) setTable(ctx context.Context, long *domain.LongTable, source string) error {
	groups, err := s.indexGroups(long)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.long = long
	s.groups = groups
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", source),
		slog.Int("records", long.Len()),
		slog.Int("groups", len(groups)))

	return nil
}

// indexGroups lists the group keys of long in sorted order
func (s *DatasetService) indexGroups(long *domain.LongTable) ([]GroupInfo, error) {
	idx, err := long.KeyIndexes(s.components.Config.GroupBy)
	if err != nil {
		return nil, apperrors.NewConfigError("group_by does not match the input table", err)
	}

	byKey := make(map[string]*GroupInfo)
	for _, rec := range long.Records {
		key := domain.GroupKey(rec, idx)
		g, ok := byKey[key]
		if !ok {
			g = &GroupInfo{Group: key, FirstYear: rec.Year, LastYear: rec.Year}
			byKey[key] = g
		}
		g.Records++
		if rec.Year < g.FirstYear {
			g.FirstYear = rec.Year
		}
		if rec.Year > g.LastYear {
			g.LastYear = rec.Year
		}
	}

	groups := make([]GroupInfo, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Group < groups[j].Group })
	return groups, nil
}

// Loaded reports whether a table has been loaded
func (s *DatasetService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.long != nil
}

// Info describes the loaded table
func (s *DatasetService) Info(ctx context.Context) (DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.long == nil {
		return DatasetInfo{}, apperrors.NewNotFoundError("dataset")
	}
	return DatasetInfo{
		Source:   s.long.Source,
		Records:  s.long.Len(),
		Groups:   len(s.groups),
		GroupBy:  append([]string(nil), s.components.Config.GroupBy...),
		LoadedAt: s.loadedAt,
	}, nil
}

// Groups lists the group keys of the loaded table
func (s *DatasetService) Groups(ctx context.Context) ([]GroupInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.long == nil {
		return nil, apperrors.NewNotFoundError("dataset")
	}
	return append([]GroupInfo(nil), s.groups...), nil
}

// Series aggregates the records of one group
func (s *DatasetService) Series(ctx context.Context, q SeriesQuery) (*SeriesResponse, error) {
	if err := s.validateQuery(q); err != nil {
		return nil, err
	}

	long, err := s.lookup(q.Group)
	if err != nil {
		return nil, err
	}

	c := s.components
	ac := operations.AggregatorConfig(c.Config, operations.RunOptions{
		Filter:    q.Group,
		Mode:      q.Mode,
		StartYear: q.StartYear,
		EndYear:   q.EndYear,
	})

	result, err := dataprocessing.NewAggregator(s.logger, ac).Aggregate(ctx, long)
	if err != nil {
		return nil, err
	}
	if excluded, ok := result.IsExcluded(q.Group); ok {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("group %q excluded: %s", q.Group, excluded.Reason)).
			WithContext("group", q.Group).
			WithContext("samples", excluded.Samples)
	}

	total, _ := result.Total(q.Group)
	resp := &SeriesResponse{
		Group:     q.Group,
		Mode:      result.Mode,
		StartYear: result.StartYear,
		EndYear:   result.EndYear,
		Records:   result.Series(q.Group),
		Total:     total,
	}
	if summaries := c.Summarizer.Summarize(ctx, result); len(summaries) > 0 {
		resp.Summary = &summaries[0]
	}

	return resp, nil
}

// Chart renders the trend of one group to w in the configured plot format
func (s *DatasetService) Chart(ctx context.Context, w io.Writer, q SeriesQuery) error {
	series, err := s.Series(ctx, q)
	if err != nil {
		return err
	}
	return s.components.Plotter.Render(ctx, w, q.Group, series.Records)
}

// ChartContentType returns the media type written by Chart
func (s *DatasetService) ChartContentType() string {
	return s.components.Plotter.ContentType()
}

func (s *DatasetService) lookup(group string) (*domain.LongTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.long == nil {
		return nil, apperrors.NewNotFoundError("dataset")
	}
	i := sort.Search(len(s.groups), func(i int) bool { return s.groups[i].Group >= group })
	if i == len(s.groups) || s.groups[i].Group != group {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("group %q", group)).
			WithContext("group", group)
	}
	return s.long, nil
}

func (s *DatasetService) validateQuery(q SeriesQuery) error {
	err := s.validate.Struct(q)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError(err.Error())
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			problems = append(problems, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}

	return apperrors.NewValidationError("invalid query: "+strings.Join(problems, "; ")).
		WithContext("fields", problems)
}
