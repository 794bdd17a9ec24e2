package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "fishstat/internal/errors"
	"fishstat/pkg/contracts/domain"
)

var (
	// yearHeader matches 1950, [1950] and Y1950
	yearHeader    = regexp.MustCompile(`^(?:\[(\d{4})\]|[Yy](\d{4})|(\d{4}))$`)
	decimalNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
)

// CleanerConfig holds the cleaning rules
type CleanerConfig struct {
	MissingMarkers []string          // Cell values treated as missing
	Default        float64           // Replacement for missing cells
	StatusPattern  string            // Regexp for status/flag column headers; empty keeps all
	Renames        map[string]string // Identifier header renames
	KeepColumns    []string          // Identifiers never dropped as status columns
}

// CleanReport describes what a Clean call changed
type CleanReport struct {
	Rows           int            `json:"rows"`
	YearColumns    int            `json:"year_columns"`
	DroppedColumns []string       `json:"dropped_columns"`
	Replaced       map[string]int `json:"replaced"`
	ReplacedTotal  int            `json:"replaced_total"`
}

// Cleaner replaces missing-value markers and removes status columns
type Cleaner struct {
	logger   *slog.Logger
	markers  map[string]struct{}
	def      float64
	status   *regexp.Regexp
	renames  map[string]string
	keepCols map[string]struct{}
}

// NewCleaner validates the rules and creates a cleaner
func NewCleaner(logger *slog.Logger, cfg CleanerConfig) (*Cleaner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if math.IsNaN(cfg.Default) || math.IsInf(cfg.Default, 0) {
		return nil, apperrors.NewConfigError("missing_value_default must be a finite number", nil)
	}

	c := &Cleaner{
		logger:   logger.With(slog.String("component", "cleaner")),
		markers:  make(map[string]struct{}, len(cfg.MissingMarkers)),
		def:      cfg.Default,
		renames:  cfg.Renames,
		keepCols: make(map[string]struct{}, len(cfg.Renames)+len(cfg.KeepColumns)),
	}

	for _, m := range cfg.MissingMarkers {
		c.markers[strings.TrimSpace(m)] = struct{}{}
	}

	if cfg.StatusPattern != "" {
		re, err := regexp.Compile(cfg.StatusPattern)
		if err != nil {
			return nil, apperrors.NewConfigError("invalid status_column_pattern", err).
				WithContext("pattern", cfg.StatusPattern)
		}
		c.status = re
	}

	for from, to := range cfg.Renames {
		c.keepCols[from] = struct{}{}
		c.keepCols[to] = struct{}{}
	}
	for _, name := range cfg.KeepColumns {
		c.keepCols[name] = struct{}{}
	}

	return c, nil
}

// column describes how one raw column is carried into the clean table
type column struct {
	index int
	name  string
	year  int
}

// Clean converts a raw table into a numeric clean table. The row count is
// preserved; cells that are neither markers nor numbers fail the call
// with a PARSING error naming the 1-based data row and the column.
func (c *Cleaner) Clean(ctx context.Context, raw *domain.RawTable) (*domain.CleanTable, *CleanReport, error) {
	if raw == nil {
		return nil, nil, apperrors.NewValidationError("raw table is nil")
	}

	report := &CleanReport{
		Rows:     raw.NumRows(),
		Replaced: make(map[string]int),
	}

	ids, years, err := c.classifyColumns(raw.Header, report)
	if err != nil {
		return nil, nil, err
	}
	report.YearColumns = len(years)

	clean := &domain.CleanTable{
		Source:      raw.Source,
		Identifiers: make([]string, len(ids)),
		Years:       make([]int, len(years)),
		Keys:        make([][]string, 0, raw.NumRows()),
		Values:      make([][]float64, 0, raw.NumRows()),
	}
	for i, col := range ids {
		clean.Identifiers[i] = col.name
	}
	for i, col := range years {
		clean.Years[i] = col.year
	}

	for r, row := range raw.Rows {
		if r%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}

		keys := make([]string, len(ids))
		for i, col := range ids {
			keys[i] = strings.TrimSpace(row[col.index])
		}

		values := make([]float64, len(years))
		for i, col := range years {
			cell := row[col.index]
			trimmed := strings.TrimSpace(cell)
			if _, missing := c.markers[trimmed]; missing {
				values[i] = c.def
				report.Replaced[trimmed]++
				report.ReplacedTotal++
				continue
			}

			v, err := parseNumber(trimmed)
			if err != nil {
				parseErr := apperrors.NewParseError(r+1, raw.Header[col.index], cell, err)
				if line := raw.Line(r); line > 0 {
					parseErr.WithContext("line", line)
				}
				return nil, nil, parseErr
			}
			values[i] = v
		}

		clean.Keys = append(clean.Keys, keys)
		clean.Values = append(clean.Values, values)
	}

	c.logger.InfoContext(ctx, "table cleaned",
		slog.Int("rows", report.Rows),
		slog.Int("year_columns", report.YearColumns),
		slog.Int("dropped_columns", len(report.DroppedColumns)),
		slog.Int("cells_replaced", report.ReplacedTotal),
		slog.Float64("replacement", c.def))

	if report.ReplacedTotal > 0 {
		c.logger.DebugContext(ctx, "missing-value markers replaced",
			slog.Any("by_marker", report.Replaced))
	}

	return clean, report, nil
}

// classifyColumns splits the header into identifier and year columns,
// dropping status columns. Year columns are returned in ascending order.
func (c *Cleaner) classifyColumns(header []string, report *CleanReport) ([]column, []column, error) {
	var ids, years []column
	seenYears := make(map[int]string)
	seenIDs := make(map[string]struct{})

	for i, h := range header {
		if year, ok := ParseYearHeader(h); ok {
			if prev, dup := seenYears[year]; dup {
				return nil, nil, apperrors.NewParsingError(
					fmt.Sprintf("columns %q and %q both hold year %d", prev, h, year), nil).
					WithContext("column", h)
			}
			seenYears[year] = h
			years = append(years, column{index: i, name: h, year: year})
			continue
		}

		if c.isStatusColumn(h) {
			report.DroppedColumns = append(report.DroppedColumns, h)
			continue
		}

		name := h
		if renamed, ok := c.renames[h]; ok {
			name = renamed
		}
		if _, dup := seenIDs[name]; dup {
			return nil, nil, apperrors.NewParsingError(
				fmt.Sprintf("duplicate identifier column %q", name), nil).
				WithContext("column", h)
		}
		seenIDs[name] = struct{}{}
		ids = append(ids, column{index: i, name: name})
	}

	if len(years) == 0 {
		return nil, nil, apperrors.NewParsingError("no year columns found in header", nil).
			WithContext("header", header)
	}

	sort.SliceStable(years, func(a, b int) bool {
		return years[a].year < years[b].year
	})

	return ids, years, nil
}

func (c *Cleaner) isStatusColumn(header string) bool {
	if c.status == nil {
		return false
	}
	if _, keep := c.keepCols[header]; keep {
		return false
	}
	return c.status.MatchString(header)
}

// ParseYearHeader extracts the year from a year column header
func ParseYearHeader(h string) (int, bool) {
	m := yearHeader.FindStringSubmatch(strings.TrimSpace(h))
	if m == nil {
		return 0, false
	}
	for _, g := range m[1:] {
		if g != "" {
			year, err := strconv.Atoi(g)
			return year, err == nil
		}
	}
	return 0, false
}

// parseNumber accepts finite decimal numbers only
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !decimalNumber.MatchString(s) {
		return 0, fmt.Errorf("not a decimal number: %q", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
